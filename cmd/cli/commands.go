package main

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"translate-cache-service/api/dto"
)

// stringSlice collects repeated flag values, keeping empty ones.
type stringSlice []string

func (s *stringSlice) String() string { return strings.Join(*s, ",") }
func (s *stringSlice) Set(val string) error {
	*s = append(*s, val)
	return nil
}
func (s *stringSlice) Type() string { return "stringSlice" }

var _ pflag.Value = (*stringSlice)(nil)

type clientOptions struct {
	addr    string
	lang    string
	gzip    bool
	timeout time.Duration
}

func addClientFlags(fs *pflag.FlagSet, o *clientOptions) {
	fs.StringVar(&o.addr, "addr", "http://localhost:3000", "server address")
	fs.StringVarP(&o.lang, "lang", "l", "", "target language code, e.g. FR (required)")
	fs.BoolVar(&o.gzip, "gzip", false, "gzip request body")
	fs.DurationVar(&o.timeout, "timeout", 60*time.Second, "request timeout")
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "translate-cli",
		Short: "Client for the translation cache service",
		Long: `translate-cli sends review batches to a running translation cache service.

Examples:
  translate-cli translate --lang FR --text "Great product" --text "Slow delivery"
  translate-cli translate --lang DE --file reviews.json --gzip
  translate-cli evict --lang FR --text "Great product"`,
		SilenceUsage: true,
	}
	root.AddCommand(newTranslateCmd(), newEvictCmd())
	return root
}

func newTranslateCmd() *cobra.Command {
	var (
		opts    clientOptions
		authors stringSlice
		titles  stringSlice
		texts   stringSlice
		file    string
	)
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate reviews",
		Long: `Translate reviews given with --text (one record per flag; --author and --title
are matched to texts by position) or read from --file. The file holds either a JSON
array of reviews or a full request {"reviews":[...],"targetLang":"FR"}.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildTranslateRequest(opts.lang, authors, titles, texts, file)
			if err != nil {
				return err
			}
			return post(cmd.OutOrStdout(), &opts, "/translate", req, http.StatusOK)
		},
	}
	addClientFlags(cmd.Flags(), &opts)
	cmd.Flags().Var(&authors, "author", "review author (repeatable)")
	cmd.Flags().Var(&titles, "title", "review title (repeatable)")
	cmd.Flags().Var(&texts, "text", "review text (repeatable)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with reviews")
	return cmd
}

func newEvictCmd() *cobra.Command {
	var (
		opts  clientOptions
		texts stringSlice
	)
	cmd := &cobra.Command{
		Use:   "evict",
		Short: "Drop cached translations of the given texts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.lang == "" || len(texts) == 0 {
				return errors.New("--lang and at least one --text are required")
			}
			req := dto.EvictRequest{Texts: texts, TargetLang: opts.lang}
			if err := post(cmd.OutOrStdout(), &opts, "/cache/evict", req, http.StatusAccepted); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "eviction of %d text(s) accepted\n", len(texts))
			return nil
		},
	}
	addClientFlags(cmd.Flags(), &opts)
	cmd.Flags().Var(&texts, "text", "source text (repeatable)")
	return cmd
}

func buildTranslateRequest(lang string, authors, titles, texts []string, file string) (*dto.TranslateRequest, error) {
	req := &dto.TranslateRequest{TargetLang: lang}

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			err = json.Unmarshal(trimmed, &req.Reviews)
		} else {
			err = json.Unmarshal(trimmed, req)
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		if lang != "" {
			req.TargetLang = lang
		}
	}

	if len(authors) > len(texts) || len(titles) > len(texts) {
		return nil, errors.New("--author and --title cannot outnumber --text")
	}
	for i := range texts {
		r := dto.Review{Text: &texts[i]}
		if i < len(authors) {
			r.Author = &authors[i]
		}
		if i < len(titles) {
			r.Title = &titles[i]
		}
		req.Reviews = append(req.Reviews, r)
	}

	if req.TargetLang == "" {
		return nil, errors.New("--lang is required")
	}
	if len(req.Reviews) == 0 {
		return nil, errors.New("no reviews: use --text or --file")
	}
	return req, nil
}

func post(out io.Writer, opts *clientOptions, path string, payload any, wantStatus int) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if opts.gzip {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		if _, err := gz.Write(body); err != nil {
			return err
		}
		if err := gz.Close(); err != nil {
			return err
		}
		body = buf.Bytes()
	}

	req, err := http.NewRequest(http.MethodPost, strings.TrimRight(opts.addr, "/")+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if opts.gzip {
		req.Header.Set("Content-Encoding", "gzip")
	}

	client := &http.Client{Timeout: opts.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	_, err = io.Copy(out, resp.Body)
	return err
}
