package upstream

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"telegram-alerts-go/alert"
)

type BreakerConfig struct {
	Enabled             bool
	MaxRequests         uint32        // пробных запросов в half-open
	Interval            time.Duration // период сброса счётчиков в closed; 0 — не сбрасывать
	Timeout             time.Duration // сколько breaker остаётся open
	ConsecutiveFailures uint32        // после стольких ошибок подряд breaker размыкается
}

// Breaker размыкает цепь после серии ошибок переводчика; пока цепь разомкнута,
// вызовы сразу завершаются ошибкой gobreaker.ErrOpenState. Повторов нет.
type Breaker struct {
	cb   *gobreaker.CircuitBreaker
	next Translator
}

func NewBreaker(name string, cfg BreakerConfig, next Translator) *Breaker {
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				zap.S().Errorw(alert.Prefix("upstream circuit breaker opened"), "name", name, "from", from.String())
				return
			}
			zap.S().Infow("upstream circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
		// отмена запроса клиентом не говорит о состоянии переводчика
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings), next: next}
}

func (b *Breaker) Translate(ctx context.Context, texts []string, targetLang string) ([]string, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Translate(ctx, texts, targetLang)
	})
	if err != nil {
		return nil, err
	}
	return res.([]string), nil
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
