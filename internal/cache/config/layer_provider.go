package config

import (
	"fmt"
	"time"
)

type LayerProvider struct {
	Name     string
	Mode     LayerMode
	TTL      time.Duration
	Provider Provider
}

func (lp *LayerProvider) Enabled() bool { return lp.Mode == LayerModeEnabled }

type LayerProviderService struct {
	layerProviders []*LayerProvider
}

func NewLayerProviderService(cfg *AppConfig) *LayerProviderService {
	providersMap := providersToMap(cfg.Providers)
	return &LayerProviderService{
		layerProviders: createLayerProviders(cfg.Layers, providersMap),
	}
}

// LayerProviders возвращает слои в порядке обхода (0 — самый быстрый).
func (s *LayerProviderService) LayerProviders() []*LayerProvider {
	return s.layerProviders
}

func createLayerProviders(layers []Layer, providersMap map[string]Provider) (layerProviders []*LayerProvider) {
	layerProviders = make([]*LayerProvider, len(layers))
	for i, layer := range layers {
		provider, found := providersMap[layer.Name]
		if !found {
			panic(fmt.Errorf("can't create layer providers. can't find provider with name: %q", layer.Name))
		}
		layerProviders[i] = &LayerProvider{
			Name:     layer.Name,
			Mode:     layer.Mode,
			TTL:      layer.TTL,
			Provider: provider,
		}
	}
	return
}

func providersToMap(providers []Provider) (providersMap map[string]Provider) {
	providersMap = make(map[string]Provider)
	for _, provider := range providers {
		providersMap[provider.GetName()] = provider
	}
	return
}
