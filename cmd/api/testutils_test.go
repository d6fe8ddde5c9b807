package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"foodspot/internal/auth"
	"foodspot/internal/discovery"
	"foodspot/internal/domain/accesscontrol"
	"foodspot/internal/domain/favorites"
	"foodspot/internal/domain/preferences"
	"foodspot/internal/domain/reviews"
	"foodspot/internal/domain/spotedits"
	"foodspot/internal/domain/spots"
	"foodspot/internal/domain/storage"
	"foodspot/internal/events"
	"foodspot/internal/geo"
	"foodspot/internal/geocode"
	"foodspot/internal/leaderboard"
	"foodspot/internal/sharecode"
	"foodspot/internal/toggle"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testTokenSecret = "test-secret"

type fakeSpotStore struct {
	spots.Store
	mu     sync.Mutex
	items  map[int64]*spots.Spot
	nextID int64
	counts []spots.CreatorCount
}

func newFakeSpotStore() *fakeSpotStore {
	return &fakeSpotStore{items: map[int64]*spots.Spot{}}
}

// put stores a copy of s, assigning an id when s has none.
func (f *fakeSpotStore) put(s spots.Spot) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == 0 {
		f.nextID++
		s.ID = f.nextID
	} else if s.ID > f.nextID {
		f.nextID = s.ID
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	f.items[s.ID] = &s
	return s.ID
}

func (f *fakeSpotStore) get(id int64) *spots.Spot {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.items[id]
	if !ok {
		return nil
	}
	cp := *s
	return &cp
}

func (f *fakeSpotStore) Create(_ context.Context, s *spots.Spot) error {
	s.Verified = false
	s.ID = f.put(*s)
	s.CreatedAt = f.get(s.ID).CreatedAt
	return nil
}

func (f *fakeSpotStore) GetByID(_ context.Context, id int64) (*spots.Spot, error) {
	if s := f.get(id); s != nil {
		return s, nil
	}
	return nil, spots.ErrSpotNotFound
}

func (f *fakeSpotStore) ListVerified(_ context.Context) ([]spots.Spot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []spots.Spot{}
	for _, s := range f.items {
		if s.Verified {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeSpotStore) ListByIDs(_ context.Context, ids []int64) ([]spots.Spot, error) {
	out := []spots.Spot{}
	for _, id := range ids {
		if s := f.get(id); s != nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSpotStore) ApplyFields(_ context.Context, id int64, fields spots.Fields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.items[id]
	if !ok {
		return spots.ErrSpotNotFound
	}
	fields.Apply(s)
	return nil
}

func (f *fakeSpotStore) CountByCreator(_ context.Context) ([]spots.CreatorCount, error) {
	return f.counts, nil
}

type fakeReviewStore struct {
	reviews.Store
	stats   reviews.Stats
	counts  []reviews.AuthorCount
	created []reviews.Review
}

func (f *fakeReviewStore) Create(_ context.Context, r *reviews.Review) error {
	r.ID = int64(len(f.created) + 1)
	r.CreatedAt = time.Now()
	f.created = append(f.created, *r)
	return nil
}

func (f *fakeReviewStore) ListBySpot(_ context.Context, spotID int64) ([]reviews.Review, error) {
	out := []reviews.Review{}
	for i := len(f.created) - 1; i >= 0; i-- {
		if f.created[i].SpotID == spotID {
			out = append(out, f.created[i])
		}
	}
	return out, nil
}

func (f *fakeReviewStore) Stats(_ context.Context, _ int64) (reviews.Stats, error) {
	return f.stats, nil
}

func (f *fakeReviewStore) CountsBySpot(_ context.Context) (map[int64]int, error) {
	return map[int64]int{}, nil
}

func (f *fakeReviewStore) CountByAuthor(_ context.Context) ([]reviews.AuthorCount, error) {
	return f.counts, nil
}

type listKey struct {
	list   favorites.List
	userID uuid.UUID
	spotID int64
}

type fakeFavoriteStore struct {
	favorites.Store
	mu    sync.Mutex
	spots *fakeSpotStore
	items map[listKey]bool
	order []listKey
}

func (f *fakeFavoriteStore) Set(_ context.Context, list favorites.List, userID uuid.UUID, spotID int64, on bool) error {
	if f.spots.get(spotID) == nil {
		return favorites.ErrSpotNotFound
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	k := listKey{list, userID, spotID}
	if on && !f.items[k] {
		f.order = append(f.order, k)
	}
	f.items[k] = on
	return nil
}

func (f *fakeFavoriteStore) SpotIDs(_ context.Context, list favorites.List, userID uuid.UUID) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for i := len(f.order) - 1; i >= 0; i-- {
		k := f.order[i]
		if k.list == list && k.userID == userID && f.items[k] {
			ids = append(ids, k.spotID)
		}
	}
	return ids, nil
}

type fakeAccessControl struct {
	accesscontrol.Store
	roles map[uuid.UUID][]accesscontrol.RoleName
}

func (f *fakeAccessControl) UserHasAnyRole(_ context.Context, userID uuid.UUID, roles ...accesscontrol.RoleName) (bool, error) {
	for _, have := range f.roles[userID] {
		for _, want := range roles {
			if have == want {
				return true, nil
			}
		}
	}
	return false, nil
}

func (f *fakeAccessControl) RolesOf(_ context.Context, userID uuid.UUID) ([]accesscontrol.RoleName, error) {
	return append([]accesscontrol.RoleName{}, f.roles[userID]...), nil
}

type fakePreferenceStore struct {
	preferences.Store
	profiles map[uuid.UUID]preferences.Profile
}

func (f *fakePreferenceStore) GetOrCreate(_ context.Context, userID uuid.UUID) (*preferences.Preference, error) {
	pref := &preferences.Preference{UserID: userID, PushEnabled: true}
	if p, ok := f.profiles[userID]; ok && p.Username != "" {
		pref.Username = &p.Username
	}
	return pref, nil
}

func (f *fakePreferenceStore) Profiles(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]preferences.Profile, error) {
	out := map[uuid.UUID]preferences.Profile{}
	for _, id := range ids {
		if p, ok := f.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type fakeEditStore struct {
	spotedits.Store
	mu    sync.Mutex
	items map[int64]*spotedits.Edit
}

func (f *fakeEditStore) List(_ context.Context, filter spotedits.Filter) ([]spotedits.Edit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []spotedits.Edit{}
	for _, e := range f.items {
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeEditStore) decide(id int64, status spotedits.Status, reviewer uuid.UUID, note *string) (*spotedits.Edit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.items[id]
	if !ok {
		return nil, spotedits.ErrEditNotFound
	}
	if e.Status != spotedits.StatusPending {
		return nil, spotedits.ErrNotPending
	}
	now := time.Now()
	e.Status, e.Note, e.ReviewedAt, e.ReviewedBy = status, note, &now, &reviewer
	cp := *e
	return &cp, nil
}

func (f *fakeEditStore) MarkApproved(_ context.Context, id int64, reviewer uuid.UUID, note *string) (*spotedits.Edit, error) {
	return f.decide(id, spotedits.StatusApproved, reviewer, note)
}

func (f *fakeEditStore) MarkRejected(_ context.Context, id int64, reviewer uuid.UUID, note *string) (*spotedits.Edit, error) {
	return f.decide(id, spotedits.StatusRejected, reviewer, note)
}

type fakeResolver map[string]geo.Point

func (f fakeResolver) Resolve(_ context.Context, place string) (geo.Point, error) {
	if p, ok := f[place]; ok {
		return p, nil
	}
	return geo.Point{}, geocode.ErrNotFound
}

type sentMail struct {
	template, to, replyTo string
	data                  any
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(templateFile, toEmail, replyTo string, data any) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{templateFile, toEmail, replyTo, data})
	return nil
}

type testEnv struct {
	app       *application
	mux       http.Handler
	spots     *fakeSpotStore
	reviews   *fakeReviewStore
	favorites *fakeFavoriteStore
	access    *fakeAccessControl
	prefs     *fakePreferenceStore
	edits     *fakeEditStore
	community *fakeCommunityStore
	inbox     *fakeNotificationStore
	media     *fakeMedia
}

func newTestApplication(t *testing.T) *testEnv {
	t.Helper()

	spotStore := newFakeSpotStore()
	env := &testEnv{
		spots:     spotStore,
		reviews:   &fakeReviewStore{},
		favorites: &fakeFavoriteStore{spots: spotStore, items: map[listKey]bool{}},
		access:    &fakeAccessControl{roles: map[uuid.UUID][]accesscontrol.RoleName{}},
		prefs:     &fakePreferenceStore{profiles: map[uuid.UUID]preferences.Profile{}},
		edits:     &fakeEditStore{items: map[int64]*spotedits.Edit{}},
		community: newFakeCommunityStore(),
		inbox:     newFakeNotificationStore(),
		media:     &fakeMedia{},
	}

	store := &storage.Container{
		Spots:         env.spots,
		Reviews:       env.reviews,
		Favorites:     env.favorites,
		AccessControl: env.access,
		Preferences:   env.prefs,
		SpotEdits:     env.edits,
		Community:     env.community,
		Notifications: env.inbox,
	}
	store.EditTx = func(ctx context.Context, fn func(tx *storage.EditTx) error) error {
		return fn(&storage.EditTx{Spots: env.spots, SpotEdits: env.edits})
	}

	codec, err := sharecode.New("test-salt")
	require.NoError(t, err)

	resolver := fakeResolver{"Fort Kochi": {Latitude: 9.9658, Longitude: 76.2421}}

	env.app = &application{
		config: config{
			auth: authConfig{
				basic: basicConfig{user: "ops", pass: "secret"},
			},
			leaderboard: leaderboardConfig{limit: 50},
		},
		store:         store,
		logger:        zap.NewNop().Sugar(),
		media:         env.media,
		authenticator: auth.NewJWTAuthenticator(testTokenSecret, "", ""),
		geocoder:      resolver,
		discovery:     discovery.NewService(env.spots, env.reviews, resolver),
		toggles:       toggle.New(nil),
		ranker:        leaderboard.NewRanker([]string{"admin"}),
		shareCodes:    codec,
		bus:           events.NewBus(),
	}
	env.mux = env.app.mount()
	return env
}

func (e *testEnv) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	tok, err := e.app.authenticator.GenerateToken(userID, "someone@example.com", time.Hour)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) moderator(t *testing.T) (uuid.UUID, string) {
	t.Helper()
	id := uuid.New()
	e.access.roles[id] = []accesscontrol.RoleName{accesscontrol.RoleModerator}
	return id, e.token(t, id)
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	e.mux.ServeHTTP(rr, req)
	return rr
}

// decodeData unwraps the {"data": ...} envelope into v.
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, v))
}

// jsonUnmarshal decodes the whole response body, envelope included.
func jsonUnmarshal(rr *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(rr.Body.Bytes(), v)
}

func float(v float64) *float64 { return &v }

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
