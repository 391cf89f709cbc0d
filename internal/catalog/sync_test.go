package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compensa/internal"
	"compensa/internal/api"
	"compensa/internal/config"
	"compensa/internal/storage"
)

type fakeFetcher struct {
	calls map[string]int
	lists map[string][]string
	err   error
}

func (f *fakeFetcher) Municipalities(_ context.Context, path string) ([]string, error) {
	f.calls[path]++
	if f.err != nil {
		return nil, f.err
	}
	return f.lists[path], nil
}

func (f *fakeFetcher) LoadMunicipalities(ctx context.Context) api.MunicipalityLists {
	out := api.MunicipalityLists{}
	out.General, out.GeneralErr = f.Municipalities(ctx, api.PathMunicipalities)
	out.App, out.AppErr = f.Municipalities(ctx, api.PathAppMunicipalities)
	return out
}

func newService(t *testing.T, f *fakeFetcher) (*SyncService, *time.Time) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "c.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg, _ := config.Load()
	cfg.MunicipalityCacheHours = 1
	svc := NewSyncService(db, f, cfg, nil)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, &now
}

func TestMunicipalitiesCachedUntilExpired(t *testing.T) {
	f := &fakeFetcher{calls: map[string]int{}, lists: map[string][]string{api.PathMunicipalities: {"Avaré"}}}
	svc, now := newService(t, f)
	ctx := context.Background()

	names, err := svc.Municipalities(ctx, internal.DomainIsolated, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Avaré"}, names)

	_, err = svc.Municipalities(ctx, internal.DomainPatch, false)
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls[api.PathMunicipalities], "patch shares the general list")

	*now = now.Add(2 * time.Hour)
	f.lists[api.PathMunicipalities] = []string{"Avaré", "Itaí"}
	names, err = svc.Municipalities(ctx, internal.DomainIsolated, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Avaré", "Itaí"}, names)
	assert.Equal(t, 2, f.calls[api.PathMunicipalities])
}

func TestMunicipalitiesServesStaleOnFailure(t *testing.T) {
	f := &fakeFetcher{calls: map[string]int{}, lists: map[string][]string{api.PathAppMunicipalities: {"Cotia"}}}
	svc, _ := newService(t, f)
	ctx := context.Background()

	_, err := svc.Municipalities(ctx, internal.DomainApp, false)
	require.NoError(t, err)

	f.err = errors.New("down")
	names, err := svc.Municipalities(ctx, internal.DomainApp, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cotia"}, names)

	_, err = svc.Municipalities(ctx, internal.DomainIsolated, false)
	assert.Error(t, err, "no cache to fall back on")
}

func TestRefreshCachesBothLists(t *testing.T) {
	f := &fakeFetcher{calls: map[string]int{}, lists: map[string][]string{
		api.PathMunicipalities:    {"Avaré"},
		api.PathAppMunicipalities: {"Cotia"},
	}}
	svc, _ := newService(t, f)
	ctx := context.Background()

	lists, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cotia"}, lists.App)

	names, err := svc.Municipalities(ctx, internal.DomainApp, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cotia"}, names)
	assert.Equal(t, 1, f.calls[api.PathAppMunicipalities])
}
