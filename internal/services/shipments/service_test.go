package shipments

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/HenryEmmanuel06/dfsworldwide/internal/mail"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	createID  string
	createIn  models.TrackingCreateInput
	createErr error

	getID  string
	getOut *models.Tracking
	getErr error
}

func (f *fakeRepo) CreateTracking(ctx context.Context, trackingID string, in models.TrackingCreateInput) (*models.Tracking, error) {
	f.createID = trackingID
	f.createIn = in
	if f.createErr != nil {
		return nil, f.createErr
	}
	t := models.Tracking{TrackingID: trackingID, RecipientEmail: in.RecipientEmail, RecipientName: in.RecipientName, DeliveryDate: in.DeliveryDate, CreatedAt: time.Now()}
	return &t, nil
}

func (f *fakeRepo) GetTrackingByID(ctx context.Context, trackingID string) (*models.Tracking, error) {
	f.getID = trackingID
	return f.getOut, f.getErr
}

type fakeCache struct {
	m map[string][]byte
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, ok := c.m[key]
	return b, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.m[key] = value
	return nil
}

type fakeMailer struct {
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(msg mail.Message) error {
	m.sent = append(m.sent, msg)
	return m.err
}

var idRe = regexp.MustCompile(`^DFS-\d{12}-[0-9A-Z]{6}$`)

func validInput() models.TrackingCreateInput {
	return models.TrackingCreateInput{
		CreatedBy:        "u1",
		FromLocation:     "Lagos",
		ToLocation:       "Rotterdam",
		Port1:            "a", Port2: "b", Port3: "c", Port4: "d",
		Status:           "In transit",
		StatusMessage:    "Left origin",
		RecipientName:    "Ann",
		RecipientAddress: "Street 1",
		RecipientEmail:   "ann@example.com",
		DeliveryDate:     time.Now().Add(96 * time.Hour),
	}
}

func TestCreateTracking_GeneratesIDAndPersists(t *testing.T) {
	r := &fakeRepo{}
	m := &fakeMailer{}
	s := New(r, nil, m, "https://dfs.example", 0)

	res, err := s.CreateTracking(context.Background(), validInput())
	require.NoError(t, err)
	require.True(t, res.Persisted)
	require.Empty(t, res.Warning)
	require.Regexp(t, idRe, res.TrackingID)
	require.Equal(t, res.TrackingID, r.createID)

	require.Len(t, m.sent, 1)
	require.Equal(t, "ann@example.com", m.sent[0].To)
	require.Contains(t, m.sent[0].Text, "https://dfs.example/tracking?tid="+res.TrackingID)
}

func TestCreateTracking_InsertFailureDegrades(t *testing.T) {
	r := &fakeRepo{createErr: errors.New("duplicate key")}
	m := &fakeMailer{}
	s := New(r, nil, m, "https://dfs.example", 0)

	res, err := s.CreateTracking(context.Background(), validInput())
	require.NoError(t, err)
	require.False(t, res.Persisted)
	require.Contains(t, res.Warning, "duplicate key")
	require.NotNil(t, res.Tracking)

	// The notification still goes out; the recipient's link works once the
	// record is re-created out-of-band.
	require.Len(t, m.sent, 1)
}

func TestCreateTracking_MailFailureSwallowed(t *testing.T) {
	r := &fakeRepo{}
	m := &fakeMailer{err: errors.New("smtp down")}
	s := New(r, nil, m, "https://dfs.example", 0)

	res, err := s.CreateTracking(context.Background(), validInput())
	require.NoError(t, err)
	require.True(t, res.Persisted)
}

func TestCreateTracking_RequiresDeliveryDate(t *testing.T) {
	s := New(&fakeRepo{}, nil, nil, "", 0)
	in := validInput()
	in.DeliveryDate = time.Time{}
	_, err := s.CreateTracking(context.Background(), in)
	require.Error(t, err)
}

func TestGetTracking_CacheHit(t *testing.T) {
	r := &fakeRepo{}
	c := &fakeCache{m: map[string][]byte{}}
	s := New(r, c, nil, "", 10*time.Minute)

	want := &models.Tracking{TrackingID: "DFS-202501011200-ABCDEF", Status: "In transit"}
	b, _ := json.Marshal(want)
	c.m["tracking:dfs-202501011200-abcdef:current"] = b

	got, st, err := s.GetTracking(context.Background(), "DFS-202501011200-abcdef")
	require.NoError(t, err)
	require.Equal(t, want.TrackingID, got.TrackingID)
	require.Equal(t, "", r.getID) // repo untouched
	require.GreaterOrEqual(t, st.ActiveIndex, 0)
}

func TestGetTracking_MissFillsCache(t *testing.T) {
	created := time.Now().Add(-time.Hour)
	delivery := time.Now().Add(71 * time.Hour)
	r := &fakeRepo{getOut: &models.Tracking{
		TrackingID:   "DFS-202501011200-ABCDEF",
		Status:       "In transit",
		CreatedAt:    created,
		DeliveryDate: delivery,
	}}
	c := &fakeCache{m: map[string][]byte{}}
	s := New(r, c, nil, "", 10*time.Minute)

	got, st, err := s.GetTracking(context.Background(), "DFS-202501011200-ABCDEF")
	require.NoError(t, err)
	require.Equal(t, "DFS-202501011200-ABCDEF", got.TrackingID)
	require.Contains(t, c.m, "tracking:dfs-202501011200-abcdef:current")

	// 1h into a 72h window: first quarter.
	require.Equal(t, 0, st.ActiveIndex)
	require.False(t, st.Hold)
	require.Equal(t, "In transit", st.StatusHeadline)
}

func TestGetTracking_NotFound(t *testing.T) {
	r := &fakeRepo{getErr: ErrNotFound}
	s := New(r, nil, nil, "", 0)

	_, _, err := s.GetTracking(context.Background(), "DFS-000000000000-XXXXXX")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetTracking_EmptyID(t *testing.T) {
	s := New(&fakeRepo{}, nil, nil, "", 0)
	_, _, err := s.GetTracking(context.Background(), "  ")
	require.Error(t, err)
}
