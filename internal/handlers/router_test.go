package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"flashforge/internal/cardaction"
	"flashforge/internal/database"
	"flashforge/internal/models"
	"flashforge/internal/security"
	"flashforge/internal/service"
	"flashforge/internal/study"
	"flashforge/internal/validation"
)

type testApp struct {
	t          *testing.T
	server     *httptest.Server
	client     *http.Client
	flashcards *service.FlashcardService
}

func newTestApp(t *testing.T, studyEnabled bool) *testApp {
	t.Helper()
	captureLogs(t)

	db, err := database.Initialize(filepath.Join(t.TempDir(), "handlers_test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	templates, err := LoadTemplates("../templates")
	if err != nil {
		t.Fatalf("LoadTemplates() error = %v", err)
	}

	limits := validation.DefaultLimits()
	flashcards := service.NewFlashcardService(db, limits)
	router := NewRouter(Deps{
		Flashcards:   flashcards,
		Registry:     study.NewRegistry(time.Hour),
		Templates:    templates,
		Sessions:     security.NewSessionCodec("test-secret", time.Hour),
		CSRF:         security.NewCSRFGenerator("test-secret"),
		Limiter:      security.NewRateLimiter(1000, time.Minute),
		Limits:       limits,
		CardsPerPage: 12,
		StudyEnabled: studyEnabled,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New() error = %v", err)
	}
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testApp{t: t, server: server, client: client, flashcards: flashcards}
}

func (a *testApp) do(method, path string, form url.Values, header map[string]string) (*http.Response, string) {
	a.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, a.server.URL+path, body)
	if err != nil {
		a.t.Fatalf("NewRequest() error = %v", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		a.t.Fatalf("%s %s error = %v", method, path, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		a.t.Fatalf("reading body: %v", err)
	}
	return resp, string(b)
}

func (a *testApp) csrfToken() string {
	a.t.Helper()
	resp, body := a.do(http.MethodGet, "/csrf-token", nil, nil)
	if resp.StatusCode != http.StatusOK {
		a.t.Fatalf("GET /csrf-token status = %d", resp.StatusCode)
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil || payload.Token == "" {
		a.t.Fatalf("bad token payload %q: %v", body, err)
	}
	return payload.Token
}

func (a *testApp) seedSet(title string, cards ...[2]string) *models.CardSet {
	a.t.Helper()
	ctx := context.Background()
	set, err := a.flashcards.CreateSet(ctx, title, "")
	if err != nil {
		a.t.Fatalf("CreateSet() error = %v", err)
	}
	for _, c := range cards {
		if _, err := a.flashcards.AddCard(ctx, set.ID, c[0], c[1]); err != nil {
			a.t.Fatalf("AddCard() error = %v", err)
		}
	}
	set, err = a.flashcards.GetSet(ctx, set.ID)
	if err != nil {
		a.t.Fatalf("GetSet() error = %v", err)
	}
	return set
}

var htmx = map[string]string{"HX-Request": "true"}

func TestHomeListsSets(t *testing.T) {
	app := newTestApp(t, true)
	app.seedSet("World Capitals", [2]string{"France", "Paris"})

	resp, body := app.do(http.MethodGet, "/", nil, nil)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "World Capitals") {
		t.Error("home page does not list the set")
	}
	if !strings.Contains(body, `name="csrf-token"`) {
		t.Error("home page is missing the csrf meta tag")
	}
}

func TestCreateSet(t *testing.T) {
	app := newTestApp(t, true)
	token := app.csrfToken()

	t.Run("missing token", func(t *testing.T) {
		resp, _ := app.do(http.MethodPost, "/set/new", url.Values{"title": {"Capitals"}}, nil)
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("status = %d, want 403", resp.StatusCode)
		}
	})

	t.Run("empty title", func(t *testing.T) {
		resp, body := app.do(http.MethodPost, "/set/new", url.Values{"title": {"  "}, CSRFFormField: {token}}, nil)
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", resp.StatusCode)
		}
		if !strings.Contains(body, "Create Flashcard Set") {
			t.Error("expected the form to be shown again")
		}
	})

	t.Run("valid", func(t *testing.T) {
		resp, _ := app.do(http.MethodPost, "/set/new", url.Values{"title": {"Capitals"}, "description": {"Europe"}, CSRFFormField: {token}}, nil)
		if resp.StatusCode != http.StatusSeeOther {
			t.Fatalf("status = %d, want 303", resp.StatusCode)
		}
		location := resp.Header.Get("Location")
		if !regexp.MustCompile(`^/set/\d+$`).MatchString(location) {
			t.Fatalf("Location = %q", location)
		}

		_, body := app.do(http.MethodGet, location, nil, nil)
		if !strings.Contains(body, MsgSetCreated) {
			t.Error("expected the created flash on the set page")
		}

		// Flashes are shown once.
		_, body = app.do(http.MethodGet, location, nil, nil)
		if strings.Contains(body, MsgSetCreated) {
			t.Error("flash was shown twice")
		}
	})
}

func TestViewMissingSetRedirectsHome(t *testing.T) {
	app := newTestApp(t, true)

	resp, _ := app.do(http.MethodGet, "/set/999", nil, nil)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("got %d to %q, want 303 to /", resp.StatusCode, resp.Header.Get("Location"))
	}

	_, body := app.do(http.MethodGet, "/", nil, nil)
	if !strings.Contains(body, MsgSetNotFound) {
		t.Error("expected the not found flash on the home page")
	}
}

func TestUnknownRouteRendersNotFoundPage(t *testing.T) {
	app := newTestApp(t, true)

	resp, body := app.do(http.MethodGet, "/nowhere", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if !strings.Contains(body, "Page Not Found") {
		t.Error("expected the 404 template")
	}
}

func TestToggleFavoriteJSON(t *testing.T) {
	app := newTestApp(t, true)
	set := app.seedSet("Capitals", [2]string{"France", "Paris"})
	path := fmt.Sprintf("/card/%d/%d/toggle-favorite", set.ID, set.Cards[0].ID)

	tests := []struct {
		favorite bool
		message  string
	}{
		{true, MsgFavoriteAdded},
		{false, MsgFavoriteRemoved},
	}
	for _, tt := range tests {
		resp, body := app.do(http.MethodPost, path, nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		var res cardaction.FavoriteResult
		if err := json.Unmarshal([]byte(body), &res); err != nil {
			t.Fatalf("body %q is not JSON: %v", body, err)
		}
		if !res.Success || res.Favorite != tt.favorite || res.Message != tt.message {
			t.Errorf("got %+v, want favorite=%v message=%q", res, tt.favorite, tt.message)
		}
	}
}

func TestToggleFavoriteMissingCard(t *testing.T) {
	app := newTestApp(t, true)
	set := app.seedSet("Capitals", [2]string{"France", "Paris"})

	paths := []string{
		fmt.Sprintf("/card/%d/999/toggle-favorite", set.ID),
		fmt.Sprintf("/card/999/%d/toggle-favorite", set.Cards[0].ID),
	}
	for _, path := range paths {
		resp, body := app.do(http.MethodPost, path, nil, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", path, resp.StatusCode)
		}
		var res map[string]interface{}
		if err := json.Unmarshal([]byte(body), &res); err != nil {
			t.Fatalf("body %q is not JSON: %v", body, err)
		}
		if res["success"] != false || res["message"] != MsgFavoriteNotFound {
			t.Errorf("%s: body = %v", path, res)
		}
	}
}

func TestToggleFavoriteHTMX(t *testing.T) {
	app := newTestApp(t, true)
	set := app.seedSet("Capitals", [2]string{"France", "Paris"})
	path := fmt.Sprintf("/card/%d/%d/toggle-favorite", set.ID, set.Cards[0].ID)

	resp, body := app.do(http.MethodPost, path, nil, htmx)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, `data-appearance="favorited"`) {
		t.Errorf("button not re-rendered as favorited: %s", body)
	}
	var trigger struct {
		ShowNotification struct {
			Message string `json:"message"`
			Kind    string `json:"kind"`
		} `json:"showNotification"`
	}
	if err := json.Unmarshal([]byte(resp.Header.Get("HX-Trigger")), &trigger); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	if trigger.ShowNotification.Message != MsgFavoriteAdded || trigger.ShowNotification.Kind != "success" {
		t.Errorf("trigger = %+v", trigger)
	}
	if !strings.Contains(body, `id="favoritesLink"`) || !strings.Contains(body, `hx-swap-oob="true"`) || !strings.Contains(body, "Favorites (1)") {
		t.Errorf("response does not refresh the nav count: %s", body)
	}

	_, body = app.do(http.MethodPost, path, nil, htmx)
	if !strings.Contains(body, "Favorites (0)") {
		t.Errorf("nav count not lowered after unfavoriting: %s", body)
	}
}

func TestCardActionsThroughClient(t *testing.T) {
	app := newTestApp(t, true)
	set := app.seedSet("Capitals", [2]string{"France", "Paris"})
	ctx := context.Background()

	client, err := cardaction.NewClient(app.server.URL)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	t.Run("favorite missing card", func(t *testing.T) {
		_, err := client.ToggleFavorite(ctx, set.ID, 999)
		var statusErr *cardaction.StatusError
		if !errors.As(err, &statusErr) || statusErr.Code != http.StatusNotFound {
			t.Fatalf("ToggleFavorite() error = %v, want StatusError 404", err)
		}
		appearance, note := cardaction.Outcome(cardaction.Unfavorited, cardaction.FavoriteResult{}, err)
		if appearance != cardaction.Unfavorited || note.Message != "Error updating favorite status" {
			t.Errorf("Outcome() = %v, %+v", appearance, note)
		}
	})

	t.Run("delete missing card", func(t *testing.T) {
		err := client.DeleteCard(ctx, set.ID, 999)
		var statusErr *cardaction.StatusError
		if !errors.As(err, &statusErr) || statusErr.Code != http.StatusNotFound {
			t.Fatalf("DeleteCard() error = %v, want StatusError 404", err)
		}
		if statusErr.Message != MsgCardNotFound {
			t.Errorf("message = %q, want %q", statusErr.Message, MsgCardNotFound)
		}
	})

	t.Run("delete existing card", func(t *testing.T) {
		if err := client.DeleteCard(ctx, set.ID, set.Cards[0].ID); err != nil {
			t.Fatalf("DeleteCard() error = %v", err)
		}
		got, err := app.flashcards.GetSet(ctx, set.ID)
		if err != nil {
			t.Fatalf("GetSet() error = %v", err)
		}
		if len(got.Cards) != 0 {
			t.Errorf("remaining cards = %+v", got.Cards)
		}
	})
}

func TestDeleteCard(t *testing.T) {
	app := newTestApp(t, true)
	set := app.seedSet("Capitals", [2]string{"France", "Paris"}, [2]string{"Spain", "Madrid"})
	path := fmt.Sprintf("/set/%d/card/%d/delete", set.ID, set.Cards[0].ID)
	token := app.csrfToken()

	resp, _ := app.do(http.MethodPost, path, url.Values{CSRFFormField: {"forged"}}, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("forged token: status = %d, want 403", resp.StatusCode)
	}

	resp, _ = app.do(http.MethodPost, path, url.Values{CSRFFormField: {token}}, nil)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != setPath(set.ID) {
		t.Fatalf("got %d to %q, want 303 to %s", resp.StatusCode, resp.Header.Get("Location"), setPath(set.ID))
	}

	got, err := app.flashcards.GetSet(context.Background(), set.ID)
	if err != nil {
		t.Fatalf("GetSet() error = %v", err)
	}
	if len(got.Cards) != 1 || got.Cards[0].Question != "Spain" {
		t.Errorf("remaining cards = %+v", got.Cards)
	}

	_, body := app.do(http.MethodGet, setPath(set.ID), nil, nil)
	if !strings.Contains(body, MsgCardDeleted) {
		t.Error("expected the deleted flash")
	}

	// Deleting again reports the card as missing.
	app.do(http.MethodPost, path, url.Values{CSRFFormField: {token}}, nil)
	_, body = app.do(http.MethodGet, setPath(set.ID), nil, nil)
	if !strings.Contains(body, MsgCardNotFound) {
		t.Error("expected the not found flash")
	}
}

func TestDeleteSet(t *testing.T) {
	app := newTestApp(t, true)
	set := app.seedSet("Capitals", [2]string{"France", "Paris"})
	token := app.csrfToken()

	resp, _ := app.do(http.MethodPost, fmt.Sprintf("/set/%d/delete", set.ID), url.Values{CSRFFormField: {token}}, nil)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("got %d to %q, want 303 to /", resp.StatusCode, resp.Header.Get("Location"))
	}
	if _, err := app.flashcards.GetSet(context.Background(), set.ID); !errors.Is(err, service.ErrSetNotFound) {
		t.Errorf("GetSet() error = %v, want ErrSetNotFound", err)
	}
}

var studyCardFlipped = regexp.MustCompile(`id="studyCard"[^>]*\bflipped"`)

func TestStudyActions(t *testing.T) {
	app := newTestApp(t, true)
	set := app.seedSet("Arithmetic", [2]string{"2+2", "4"}, [2]string{"3+3", "6"})
	base := fmt.Sprintf("/set/%d/study/", set.ID)
	token := app.csrfToken()

	_, body := app.do(http.MethodGet, setPath(set.ID), nil, nil)
	if !strings.Contains(body, "Enter Study Mode") {
		t.Fatal("set page should offer to enter study mode")
	}

	steps := []struct {
		action   string
		label    string
		question string
		flipped  bool
		controls bool
	}{
		{"toggle", "Exit Study Mode (1/2)", "2+2", false, true},
		{"next", "Exit Study Mode (2/2)", "3+3", false, true},
		{"next", "Exit Study Mode (2/2)", "3+3", false, true},
		{"flip", "Exit Study Mode (2/2)", "3+3", true, true},
		{"flip", "Exit Study Mode (2/2)", "3+3", true, true},
		{"toggle-flip", "Exit Study Mode (2/2)", "3+3", false, true},
		{"toggle-flip", "Exit Study Mode (2/2)", "3+3", true, true},
		{"unflip", "Exit Study Mode (2/2)", "3+3", false, true},
		{"previous", "Exit Study Mode (1/2)", "2+2", false, true},
		{"toggle", "Enter Study Mode", "2+2", false, false},
	}
	for i, step := range steps {
		resp, body := app.do(http.MethodPost, base+step.action, url.Values{"page": {"1"}, CSRFFormField: {token}}, htmx)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("step %d (%s): status = %d", i, step.action, resp.StatusCode)
		}
		if strings.Contains(body, "<html") {
			t.Errorf("step %d: htmx request got a full page", i)
		}
		if !strings.Contains(body, step.label) {
			t.Errorf("step %d (%s): label %q missing", i, step.action, step.label)
		}
		if !strings.Contains(body, `id="studyQuestion" class="text-2xl text-gray-800">`+step.question+"<") {
			t.Errorf("step %d (%s): question %q not displayed", i, step.action, step.question)
		}
		if got := studyCardFlipped.MatchString(body); got != step.flipped {
			t.Errorf("step %d (%s): flipped = %v, want %v", i, step.action, got, step.flipped)
		}
		if got := strings.Contains(body, `id="studyControls"`); got != step.controls {
			t.Errorf("step %d (%s): controls shown = %v, want %v", i, step.action, got, step.controls)
		}
	}

	// A page load starts over.
	_, body = app.do(http.MethodGet, setPath(set.ID), nil, nil)
	if !strings.Contains(body, "Enter Study Mode") || strings.Contains(body, `id="studyControls"`) {
		t.Error("page load should reset study mode")
	}
}

func TestStudyActionWithoutPageLoad(t *testing.T) {
	app := newTestApp(t, true)
	set := app.seedSet("Arithmetic", [2]string{"2+2", "4"})
	token := app.csrfToken()

	resp, body := app.do(http.MethodPost, fmt.Sprintf("/set/%d/study/enter", set.ID), url.Values{CSRFFormField: {token}}, nil)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "<html") {
		t.Error("plain form posts should get the whole page")
	}
	if !strings.Contains(body, "Exit Study Mode (1/1)") {
		t.Error("expected a rebuilt session in study mode")
	}
}

func TestStudyActionNotFound(t *testing.T) {
	app := newTestApp(t, true)
	set := app.seedSet("Arithmetic", [2]string{"2+2", "4"})
	token := app.csrfToken()

	tests := []struct {
		name string
		path string
	}{
		{"unknown action", fmt.Sprintf("/set/%d/study/shuffle", set.ID)},
		{"missing set", "/set/999/study/enter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := app.do(http.MethodPost, tt.path, url.Values{CSRFFormField: {token}}, htmx)
			if resp.StatusCode != http.StatusNotFound {
				t.Errorf("status = %d, want 404", resp.StatusCode)
			}
		})
	}
}

func TestStudyActionRequiresCSRF(t *testing.T) {
	app := newTestApp(t, true)
	set := app.seedSet("Arithmetic", [2]string{"2+2", "4"})
	path := fmt.Sprintf("/set/%d/study/enter", set.ID)
	token := app.csrfToken()

	resp, _ := app.do(http.MethodPost, path, nil, htmx)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("without token: status = %d, want 403", resp.StatusCode)
	}

	resp, _ = app.do(http.MethodPost, path, nil, map[string]string{"HX-Request": "true", CSRFHeaderName: token})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("token in header: status = %d, want 200", resp.StatusCode)
	}
}

func TestStudyModeDisabled(t *testing.T) {
	app := newTestApp(t, false)
	set := app.seedSet("Arithmetic", [2]string{"2+2", "4"})

	_, body := app.do(http.MethodGet, setPath(set.ID), nil, nil)
	if strings.Contains(body, `id="studyModeBtn"`) {
		t.Error("toggle button shown while study mode is disabled")
	}

	resp, _ := app.do(http.MethodPost, fmt.Sprintf("/set/%d/study/toggle", set.ID), nil, htmx)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestEmptySetHasNoToggle(t *testing.T) {
	app := newTestApp(t, true)
	set := app.seedSet("Empty")

	_, body := app.do(http.MethodGet, setPath(set.ID), nil, nil)
	if strings.Contains(body, `id="studyModeBtn"`) {
		t.Error("toggle button shown for an empty set")
	}
	if !strings.Contains(body, "This set has no cards yet.") {
		t.Error("expected the empty set message")
	}
}

func TestDeckJSON(t *testing.T) {
	app := newTestApp(t, true)
	set := app.seedSet("Arithmetic", [2]string{"2+2", "4"}, [2]string{"3+3", "6"})

	resp, body := app.do(http.MethodGet, fmt.Sprintf("/set/%d/cards.json", set.ID), nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var deck []study.Card
	if err := json.Unmarshal([]byte(body), &deck); err != nil {
		t.Fatalf("body %q is not a deck: %v", body, err)
	}
	if len(deck) != 2 || deck[0].Question != "2+2" || deck[1].Answer != "6" {
		t.Errorf("deck = %+v", deck)
	}

	resp, _ = app.do(http.MethodGet, "/set/999/cards.json", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing set: status = %d, want 404", resp.StatusCode)
	}
}

func TestFavoritesPage(t *testing.T) {
	app := newTestApp(t, true)
	set := app.seedSet("Capitals", [2]string{"France", "Paris"}, [2]string{"Spain", "Madrid"})
	if _, err := app.flashcards.ToggleFavorite(context.Background(), set.ID, set.Cards[1].ID); err != nil {
		t.Fatalf("ToggleFavorite() error = %v", err)
	}

	_, body := app.do(http.MethodGet, "/favorites", nil, nil)

	if !strings.Contains(body, "Spain") || strings.Contains(body, "France") {
		t.Error("favorites page should list only the favorite card")
	}
	if !strings.Contains(body, "Favorites (1)") {
		t.Error("nav should show the favorite count")
	}
}
