package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripy/photo-app/internal/client/rest"
	"tripy/photo-app/internal/client/session"
)

// fakeAPI is a test double for the API interface. Set only the fields a
// test needs; unset methods fail loudly.
type fakeAPI struct {
	uploadCalls atomic.Int64

	fetchTrips func(ctx context.Context, userID string) ([]rest.Trip, error)
	upload     func(ctx context.Context, tripID int, fileName, mimeType string, contents io.Reader) (*rest.UploadAck, error)
	logout     func(ctx context.Context) error
}

func (f *fakeAPI) SetToken(token string) {}

func (f *fakeAPI) FetchTripTitles(ctx context.Context, userID string) ([]rest.Trip, error) {
	if f.fetchTrips == nil {
		return []rest.Trip{}, nil
	}
	return f.fetchTrips(ctx, userID)
}

func (f *fakeAPI) Upload(ctx context.Context, tripID int, fileName, mimeType string, contents io.Reader) (*rest.UploadAck, error) {
	f.uploadCalls.Add(1)
	if f.upload == nil {
		return nil, errors.New("unexpected upload")
	}
	return f.upload(ctx, tripID, fileName, mimeType, contents)
}

func (f *fakeAPI) Logout(ctx context.Context) error {
	if f.logout == nil {
		return nil
	}
	return f.logout(ctx)
}

var _ API = (*fakeAPI)(nil)

// --- helpers ----------------------------------------------------------------

func newStoreWithSession(t *testing.T) session.Store {
	t.Helper()
	store, err := session.NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set(&session.Session{UserID: "u1", UserName: "Hana", Token: "jwt"}))
	return store
}

func twoTrips() []rest.Trip {
	return []rest.Trip{{ID: 1, Title: "Seoul"}, {ID: 2, Title: "Busan"}}
}

// startedMachine builds a machine over a stored session and the given trip
// list and brings it to Ready.
func startedMachine(t *testing.T, api *fakeAPI, trips []rest.Trip) (*Machine, session.Store) {
	t.Helper()
	if api.fetchTrips == nil {
		api.fetchTrips = func(_ context.Context, _ string) ([]rest.Trip, error) {
			return trips, nil
		}
	}
	store := newStoreWithSession(t)
	m := New(api, store)
	m.SetImageOpener(func(uri string) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("image bytes")), nil
	})
	require.NoError(t, m.Start(context.Background()))
	return m, store
}

// --- Start ------------------------------------------------------------------

func TestStart_NoStoredSession(t *testing.T) {
	store, err := session.NewFileStore(t.TempDir())
	require.NoError(t, err)

	m := New(&fakeAPI{}, store)
	err = m.Start(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, StateUnauthenticated, m.State())
}

func TestStart_EmptyTripListLeavesNoSelection(t *testing.T) {
	m, _ := startedMachine(t, &fakeAPI{}, []rest.Trip{})

	assert.Equal(t, StateReady, m.State())
	_, ok := m.SelectedTripID()
	assert.False(t, ok, "an empty trip list must leave nothing selected")
	assert.Empty(t, m.SelectionFlags())
}

func TestStart_AutoSelectsFirstTrip(t *testing.T) {
	m, _ := startedMachine(t, &fakeAPI{}, twoTrips())

	id, ok := m.SelectedTripID()
	require.True(t, ok)
	assert.Equal(t, 1, id)
	assert.Equal(t, []bool{true, false}, m.SelectionFlags())
}

func TestStart_FetchFailureLeavesEmptyList(t *testing.T) {
	api := &fakeAPI{
		fetchTrips: func(_ context.Context, _ string) ([]rest.Trip, error) {
			return nil, fmt.Errorf("connection refused")
		},
	}
	store := newStoreWithSession(t)
	m := New(api, store)

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, StateReady, m.State())
	assert.Empty(t, m.Trips())
	_, ok := m.SelectedTripID()
	assert.False(t, ok)
}

func TestStart_AuthExpiredDuringFetchClearsSession(t *testing.T) {
	api := &fakeAPI{
		fetchTrips: func(_ context.Context, _ string) ([]rest.Trip, error) {
			return nil, rest.ErrAuthExpired
		},
	}
	store := newStoreWithSession(t)
	m := New(api, store)

	err := m.Start(context.Background())
	assert.ErrorIs(t, err, rest.ErrAuthExpired)
	assert.Equal(t, StateUnauthenticated, m.State())

	_, err = store.Get()
	assert.ErrorIs(t, err, session.ErrNoSession)
}

// --- Selection --------------------------------------------------------------

func TestSelectTrip_ExactlyOneFlag(t *testing.T) {
	m, _ := startedMachine(t, &fakeAPI{}, twoTrips())

	require.NoError(t, m.SelectTrip(0))
	require.NoError(t, m.SelectTrip(1))

	flags := m.SelectionFlags()
	count := 0
	for _, f := range flags {
		if f {
			count++
		}
	}
	assert.Equal(t, 1, count, "exactly one selection flag may be true")
	assert.True(t, flags[1], "the last selected index wins")

	id, _ := m.SelectedTripID()
	assert.Equal(t, 2, id)
}

func TestSelectTrip_OutOfRange(t *testing.T) {
	m, _ := startedMachine(t, &fakeAPI{}, twoTrips())

	assert.ErrorIs(t, m.SelectTrip(5), ErrNoSuchTrip)
	assert.ErrorIs(t, m.SelectTrip(-1), ErrNoSuchTrip)
}

func TestSelectTripID_UnknownID(t *testing.T) {
	m, _ := startedMachine(t, &fakeAPI{}, twoTrips())

	assert.ErrorIs(t, m.SelectTripID(42), ErrNoSuchTrip)

	// Selection is untouched by the failed swap
	id, _ := m.SelectedTripID()
	assert.Equal(t, 1, id)
}

// --- Upload preconditions ---------------------------------------------------

func TestUpload_NoImageIsLocalFailure(t *testing.T) {
	api := &fakeAPI{}
	m, _ := startedMachine(t, api, twoTrips())

	_, err := m.Upload(context.Background())
	assert.ErrorIs(t, err, ErrNoImagePicked)
	assert.Equal(t, int64(0), api.uploadCalls.Load(), "no network call on local validation failure")
	assert.Equal(t, StateReady, m.State())
}

func TestUpload_NoSelectionIsLocalFailure(t *testing.T) {
	api := &fakeAPI{}
	m, _ := startedMachine(t, api, []rest.Trip{})

	require.NoError(t, m.PickImage(PickedImage{URI: "a.jpg", FileName: "a.jpg", MIMEType: "image/jpeg"}))

	_, err := m.Upload(context.Background())
	assert.ErrorIs(t, err, ErrNoTripSelected)
	assert.Equal(t, int64(0), api.uploadCalls.Load(), "no network call on local validation failure")
	assert.NotNil(t, m.Image(), "the staged image survives a validation failure")
}

// --- Upload outcomes --------------------------------------------------------

func TestUpload_SuccessClearsImageKeepsSelection(t *testing.T) {
	api := &fakeAPI{
		upload: func(_ context.Context, tripID int, fileName, mimeType string, contents io.Reader) (*rest.UploadAck, error) {
			assert.Equal(t, 2, tripID)
			assert.Equal(t, "upload.jpg", fileName)
			data, err := io.ReadAll(contents)
			require.NoError(t, err)
			assert.Equal(t, "image bytes", string(data))
			return &rest.UploadAck{Message: "saved", FileName: "1690000000123-upload.jpg"}, nil
		},
	}
	m, _ := startedMachine(t, api, twoTrips())

	require.NoError(t, m.SelectTripID(2))
	require.NoError(t, m.PickImage(PickedImage{URI: "photo://1", FileName: "upload.jpg", MIMEType: "image/jpeg"}))
	assert.Equal(t, StateImagePicked, m.State())

	ack, err := m.Upload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "saved", ack.Message)

	assert.Nil(t, m.Image(), "a successful upload clears the picked image")
	assert.Equal(t, StateReady, m.State())
	id, ok := m.SelectedTripID()
	require.True(t, ok)
	assert.Equal(t, 2, id, "the selection is retained after upload")
}

func TestUpload_AuthExpiredTearsDownSession(t *testing.T) {
	api := &fakeAPI{
		upload: func(_ context.Context, _ int, _, _ string, _ io.Reader) (*rest.UploadAck, error) {
			return nil, rest.ErrAuthExpired
		},
	}
	m, store := startedMachine(t, api, twoTrips())
	require.NoError(t, m.PickImage(PickedImage{URI: "photo://1", FileName: "upload.jpg"}))

	_, err := m.Upload(context.Background())
	assert.ErrorIs(t, err, rest.ErrAuthExpired)
	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Nil(t, m.Session())

	_, err = store.Get()
	assert.ErrorIs(t, err, session.ErrNoSession, "a 401 clears the session store")
}

func TestUpload_ServerFailureIsRetryable(t *testing.T) {
	api := &fakeAPI{
		upload: func(_ context.Context, _ int, _, _ string, _ io.Reader) (*rest.UploadAck, error) {
			return nil, fmt.Errorf("%w: status 500", rest.ErrServer)
		},
	}
	m, _ := startedMachine(t, api, twoTrips())
	require.NoError(t, m.PickImage(PickedImage{URI: "photo://1", FileName: "upload.jpg"}))

	_, err := m.Upload(context.Background())
	assert.ErrorIs(t, err, rest.ErrServer)

	// The image stays staged and the machine is ready for a manual retry;
	// nothing retries automatically.
	assert.Equal(t, StateImagePicked, m.State())
	assert.NotNil(t, m.Image())
	assert.Equal(t, int64(1), api.uploadCalls.Load())
}

func TestUpload_SecondUploadWhilePendingIsRejected(t *testing.T) {
	release := make(chan struct{})
	inFlight := make(chan struct{})
	api := &fakeAPI{
		upload: func(_ context.Context, _ int, _, _ string, contents io.Reader) (*rest.UploadAck, error) {
			_, _ = io.ReadAll(contents)
			close(inFlight)
			<-release
			return &rest.UploadAck{Message: "saved", FileName: "x"}, nil
		},
	}
	m, _ := startedMachine(t, api, twoTrips())
	require.NoError(t, m.PickImage(PickedImage{URI: "photo://1", FileName: "upload.jpg"}))

	done := make(chan error, 1)
	go func() {
		_, err := m.Upload(context.Background())
		done <- err
	}()

	<-inFlight
	assert.Equal(t, StateUploading, m.State())

	_, err := m.Upload(context.Background())
	assert.ErrorIs(t, err, ErrUploadInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, int64(1), api.uploadCalls.Load(), "the pending upload is the only request sent")
}

func TestStart_WhileUploadPendingIsRejected(t *testing.T) {
	release := make(chan struct{})
	inFlight := make(chan struct{})
	api := &fakeAPI{
		upload: func(_ context.Context, _ int, _, _ string, contents io.Reader) (*rest.UploadAck, error) {
			_, _ = io.ReadAll(contents)
			close(inFlight)
			<-release
			return &rest.UploadAck{Message: "saved", FileName: "x"}, nil
		},
	}
	m, _ := startedMachine(t, api, twoTrips())
	require.NoError(t, m.PickImage(PickedImage{URI: "photo://1", FileName: "upload.jpg"}))

	done := make(chan error, 1)
	go func() {
		_, err := m.Upload(context.Background())
		done <- err
	}()

	<-inFlight
	err := m.Start(context.Background())
	assert.ErrorIs(t, err, ErrUploadInFlight)
	assert.Equal(t, StateUploading, m.State(), "Start must not reset a machine mid-upload")

	// A second Upload still sees the pending one, not a reset machine.
	_, err = m.Upload(context.Background())
	assert.ErrorIs(t, err, ErrUploadInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, int64(1), api.uploadCalls.Load(), "the pending upload is the only request sent")
}

func TestStart_UploadStartedDuringFetchKeepsTheState(t *testing.T) {
	fetchEntered := make(chan struct{})
	fetchRelease := make(chan struct{})
	uploadRelease := make(chan struct{})
	uploadInFlight := make(chan struct{})

	firstFetch := true
	api := &fakeAPI{
		fetchTrips: func(_ context.Context, _ string) ([]rest.Trip, error) {
			if firstFetch {
				firstFetch = false
				return twoTrips(), nil
			}
			close(fetchEntered)
			<-fetchRelease
			return twoTrips(), nil
		},
		upload: func(_ context.Context, _ int, _, _ string, contents io.Reader) (*rest.UploadAck, error) {
			_, _ = io.ReadAll(contents)
			close(uploadInFlight)
			<-uploadRelease
			return &rest.UploadAck{Message: "saved", FileName: "x"}, nil
		},
	}
	m, _ := startedMachine(t, api, twoTrips())
	require.NoError(t, m.PickImage(PickedImage{URI: "photo://1", FileName: "upload.jpg"}))

	startDone := make(chan error, 1)
	go func() {
		startDone <- m.Start(context.Background())
	}()
	<-fetchEntered

	// The machine stays responsive while the fetch is pending: an upload
	// can begin during it.
	uploadDone := make(chan error, 1)
	go func() {
		_, err := m.Upload(context.Background())
		uploadDone <- err
	}()
	<-uploadInFlight
	assert.Equal(t, StateUploading, m.State())

	// The fetch finishing must not stomp the in-flight upload's state.
	close(fetchRelease)
	assert.ErrorIs(t, <-startDone, ErrUploadInFlight)
	assert.Equal(t, StateUploading, m.State())

	close(uploadRelease)
	require.NoError(t, <-uploadDone)
	assert.Equal(t, StateReady, m.State())
}

// --- Logout -----------------------------------------------------------------

func TestLogout_BestEffortServerCall(t *testing.T) {
	api := &fakeAPI{
		logout: func(_ context.Context) error {
			return fmt.Errorf("connection refused")
		},
	}
	m, store := startedMachine(t, api, twoTrips())

	// The server call failing does not stop the local teardown
	require.NoError(t, m.Logout(context.Background()))
	assert.Equal(t, StateUnauthenticated, m.State())

	_, err := store.Get()
	assert.ErrorIs(t, err, session.ErrNoSession)
}
