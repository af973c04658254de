package profiles

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/matchboard/go/internal/auth"
	"github.com/mcdev12/matchboard/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *App {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC))
	return NewApp(NewMemoryRepository(clock))
}

func TestGetProfileDefaultsToDark(t *testing.T) {
	p, err := newApp().GetProfile(context.Background(), "op")
	require.NoError(t, err)
	assert.Equal(t, "op", p.ID)
	assert.Equal(t, models.ThemeDark, p.AppTheme)
}

func TestToggleTheme(t *testing.T) {
	app := newApp()
	ctx := context.Background()

	p, err := app.ToggleTheme(ctx, "op")
	require.NoError(t, err)
	assert.Equal(t, models.ThemeLight, p.AppTheme)

	p, err = app.ToggleTheme(ctx, "op")
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, p.AppTheme)

	// other operators are unaffected
	p, err = app.GetProfile(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, p.AppTheme)
}

func TestSetThemeRejectsUnknown(t *testing.T) {
	_, err := newApp().SetTheme(context.Background(), "op", "sepia")
	assert.Error(t, err)
}

type failingLoader struct{}

func (failingLoader) GetProfile(ctx context.Context, ownerID string) (*models.Profile, error) {
	return nil, errors.New("boom")
}

func TestThemeStateInitAndApply(t *testing.T) {
	app := newApp()
	ctx := context.Background()
	_, err := app.SetTheme(ctx, "op", models.ThemeLight)
	require.NoError(t, err)

	state := NewThemeState(app, "op")
	assert.Equal(t, models.ThemeDark, state.Current())

	var changes []models.Theme
	state.OnChange(func(th models.Theme) { changes = append(changes, th) })

	assert.Equal(t, models.ThemeLight, state.Init(ctx))
	state.Apply(models.ThemeLight)
	state.Apply("bogus")
	state.Apply(models.ThemeDark)

	assert.Equal(t, []models.Theme{models.ThemeLight, models.ThemeDark}, changes)
	assert.Equal(t, models.ThemeDark, state.Current())
}

func TestThemeStateInitFallsBackToDark(t *testing.T) {
	state := NewThemeState(failingLoader{}, "op")
	assert.Equal(t, models.ThemeDark, state.Init(context.Background()))
}

func TestHandlerRoutes(t *testing.T) {
	r := mux.NewRouter()
	NewHandler(newApp()).RegisterRoutes(r, auth.NewVerifier("", ""))
	server := httptest.NewServer(r)
	defer server.Close()

	do := func(method, path, body string) (*http.Response, models.Profile) {
		req, err := http.NewRequest(method, server.URL+path, strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set(auth.DevOwnerHeader, "op")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		var p models.Profile
		if resp.StatusCode == http.StatusOK {
			require.NoError(t, sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&p))
		}
		return resp, p
	}

	resp, p := do(http.MethodGet, "/api/profile", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.ThemeDark, p.AppTheme)

	resp, p = do(http.MethodPost, "/api/profile/theme/toggle", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.ThemeLight, p.AppTheme)

	resp, p = do(http.MethodPut, "/api/profile/theme", `{"theme":"dark"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.ThemeDark, p.AppTheme)

	resp, _ = do(http.MethodPut, "/api/profile/theme", `{"theme":"sepia"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClientDrivesThemeState(t *testing.T) {
	r := mux.NewRouter()
	NewHandler(newApp()).RegisterRoutes(r, auth.NewVerifier("", ""))
	server := httptest.NewServer(r)
	defer server.Close()

	ctx := context.Background()
	client := NewClient(server.Client(), server.URL, "", "op")
	state := NewThemeState(client, "op")

	var changes []models.Theme
	state.OnChange(func(th models.Theme) { changes = append(changes, th) })
	assert.Equal(t, models.ThemeDark, state.Init(ctx))

	p, err := client.ToggleTheme(ctx)
	require.NoError(t, err)
	state.Apply(p.AppTheme)
	assert.Equal(t, models.ThemeLight, state.Current())

	p, err = client.SetTheme(ctx, models.ThemeLight)
	require.NoError(t, err)
	state.Apply(p.AppTheme)
	assert.Equal(t, []models.Theme{models.ThemeLight}, changes)

	_, err = client.SetTheme(ctx, "sepia")
	assert.Error(t, err)
}
