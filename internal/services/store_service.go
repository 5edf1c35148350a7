package services

import (
	"brandwatch/pkg/store"
)

// BrandInfo summarizes one admitted brand for the API.
type BrandInfo struct {
	Name      string   `json:"name"`
	Domains   []string `json:"domains"`
	LogoCount int      `json:"logo_count"`
}

type StoreServiceMethods interface {
	ListBrands() []BrandInfo
	GetBrand(name string) (*BrandInfo, bool)
}

type storeService struct {
	store *store.Store
}

func NewStoreService(st *store.Store) StoreServiceMethods {
	return &storeService{store: st}
}

func (s *storeService) ListBrands() []BrandInfo {
	brands := s.store.Brands()
	infos := make([]BrandInfo, 0, len(brands))
	for _, name := range brands {
		infos = append(infos, s.brandInfo(name))
	}
	return infos
}

func (s *storeService) GetBrand(name string) (*BrandInfo, bool) {
	if !s.store.HasBrand(name) {
		return nil, false
	}
	info := s.brandInfo(name)
	return &info, true
}

func (s *storeService) brandInfo(name string) BrandInfo {
	logos := 0
	_, files := s.store.Features()
	for _, f := range files {
		if store.BrandOfLogoFile(f) == name {
			logos++
		}
	}
	return BrandInfo{
		Name:      name,
		Domains:   s.store.Domains(name),
		LogoCount: logos,
	}
}
