// Package catalog keeps the municipality lists the entry forms offer,
// cached locally so a command does not need the API just to validate a name.
package catalog

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"compensa/internal"
	"compensa/internal/api"
	"compensa/internal/config"
	"compensa/internal/logging"
)

type Store interface {
	GetMetadata(key string) (*string, error)
	SetMetadata(key, value string) error
}

type Fetcher interface {
	Municipalities(ctx context.Context, path string) ([]string, error)
	LoadMunicipalities(ctx context.Context) api.MunicipalityLists
}

type cachedList struct {
	FetchedAt time.Time `json:"fetchedAt"`
	Names     []string  `json:"names"`
}

type SyncService struct {
	store  Store
	client Fetcher
	ttl    time.Duration
	log    *zap.Logger
	now    func() time.Time
}

func NewSyncService(store Store, client Fetcher, cfg config.Config, logger *zap.Logger) *SyncService {
	return &SyncService{
		store:  store,
		client: client,
		ttl:    time.Duration(cfg.MunicipalityCacheHours) * time.Hour,
		log:    logging.OrNop(logger),
		now:    time.Now,
	}
}

// Municipalities returns the names for a domain, from cache while it is
// fresh. When the API fails a stale cached list is still served.
func (s *SyncService) Municipalities(ctx context.Context, domain internal.Domain, force bool) ([]string, error) {
	path := api.MunicipalityPath(domain)
	cached, err := s.load(path)
	if err != nil {
		return nil, err
	}
	if !force && cached != nil && s.now().Sub(cached.FetchedAt) < s.ttl {
		return cached.Names, nil
	}

	names, err := s.client.Municipalities(ctx, path)
	if err != nil {
		if cached != nil {
			s.log.Warn("serving stale municipality list", zap.String("path", path), zap.Error(err))
			return cached.Names, nil
		}
		return nil, err
	}
	if err := s.save(path, names); err != nil {
		return nil, err
	}
	return names, nil
}

// Refresh reloads both lists at once and caches whichever succeeded.
func (s *SyncService) Refresh(ctx context.Context) (api.MunicipalityLists, error) {
	lists := s.client.LoadMunicipalities(ctx)
	if lists.GeneralErr == nil {
		if err := s.save(api.PathMunicipalities, lists.General); err != nil {
			return lists, err
		}
	}
	if lists.AppErr == nil {
		if err := s.save(api.PathAppMunicipalities, lists.App); err != nil {
			return lists, err
		}
	}
	return lists, nil
}

func (s *SyncService) load(path string) (*cachedList, error) {
	raw, err := s.store.GetMetadata(cacheKey(path))
	if err != nil || raw == nil {
		return nil, err
	}
	var c cachedList
	if err := json.Unmarshal([]byte(*raw), &c); err != nil {
		s.log.Warn("ignoring corrupt municipality cache", zap.String("path", path), zap.Error(err))
		return nil, nil
	}
	return &c, nil
}

func (s *SyncService) save(path string, names []string) error {
	blob, err := json.Marshal(cachedList{FetchedAt: s.now().UTC(), Names: names})
	if err != nil {
		return err
	}
	return s.store.SetMetadata(cacheKey(path), string(blob))
}

func cacheKey(path string) string {
	return "municipalities." + path
}
