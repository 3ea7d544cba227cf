// Package uploader holds the client-side upload session: which trips are
// selectable, which one is selected, which image is picked, and whether an
// upload is in flight. It is the screen controller's single source of
// truth; handlers mutate it and the view renders from it.
package uploader

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"sync"

	"tripy/photo-app/internal/client/rest"
	"tripy/photo-app/internal/client/session"
)

// State is the coarse position of the upload session.
type State string

const (
	// StateUnauthenticated: no stored session; the only way forward is login.
	StateUnauthenticated State = "unauthenticated"
	// StateReady: session and trip list loaded, no image picked yet.
	StateReady State = "ready"
	// StateImagePicked: an image is staged; upload preconditions may hold.
	StateImagePicked State = "imagePicked"
	// StateUploading: exactly one upload request is in flight.
	StateUploading State = "uploading"
)

// --- Error Definitions ---
var (
	// ErrNotAuthenticated: no session; caller must go through login.
	ErrNotAuthenticated = errors.New("not logged in")

	// ErrNoImagePicked and ErrNoTripSelected are local validation failures:
	// the machine stays where it is and no network request is made.
	ErrNoImagePicked  = errors.New("no image picked")
	ErrNoTripSelected = errors.New("no trip selected")

	// ErrUploadInFlight rejects a second upload while one is pending.
	ErrUploadInFlight = errors.New("an upload is already in progress")

	// ErrNoSuchTrip rejects a selection outside the fetched list.
	ErrNoSuchTrip = errors.New("no such trip in the fetched list")
)

// PickedImage is the image staged for upload. Ephemeral: replaced on each
// pick and cleared after a successful upload.
type PickedImage struct {
	URI      string
	FileName string
	MIMEType string
}

// API is the slice of the REST client the machine drives.
type API interface {
	SetToken(token string)
	FetchTripTitles(ctx context.Context, userID string) ([]rest.Trip, error)
	Upload(ctx context.Context, tripID int, fileName, mimeType string, contents io.Reader) (*rest.UploadAck, error)
	Logout(ctx context.Context) error
}

// Machine is the upload session state machine. All methods are safe for
// concurrent use; at most one upload is in flight at a time.
type Machine struct {
	mu    sync.Mutex
	api   API
	store session.Store

	state    State
	sess     *session.Session
	trips    []rest.Trip
	selected *int // selected TripID, nil when nothing is selected
	image    *PickedImage

	// openImage resolves a PickedImage URI to its contents. Defaults to
	// os.Open; tests and other front ends substitute their own.
	openImage func(uri string) (io.ReadCloser, error)
}

// New creates a machine over the given API client and session store.
func New(api API, store session.Store) *Machine {
	return &Machine{
		api:   api,
		store: store,
		state: StateUnauthenticated,
		openImage: func(uri string) (io.ReadCloser, error) {
			return os.Open(uri)
		},
	}
}

// SetImageOpener replaces the URI resolver used by Upload.
func (m *Machine) SetImageOpener(open func(uri string) (io.ReadCloser, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openImage = open
}

// Start loads the stored session and the trip list. With no stored session
// it stays Unauthenticated and returns ErrNotAuthenticated. A trip fetch
// failure is logged and leaves the list empty; the machine still reaches
// Ready so the user can retry by reopening the screen. A non-empty list
// auto-selects its first trip so an upload is possible without an explicit
// selection. Start never interrupts a pending upload: with one in flight
// it is rejected, both on entry and after the fetch.
func (m *Machine) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateUploading {
		m.mu.Unlock()
		return ErrUploadInFlight
	}

	sess, err := m.store.Get()
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			log.Printf("ERROR: Failed to read session store: %v", err)
		}
		m.state = StateUnauthenticated
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	m.sess = sess
	m.api.SetToken(sess.Token)
	m.mu.Unlock()

	// The fetch runs outside the lock so observers stay responsive.
	trips, err := m.api.FetchTripTitles(ctx, sess.UserID)

	m.mu.Lock()
	defer m.mu.Unlock()

	// An upload may have started while the list was in flight; its result
	// owns the state, so this Start gives up instead of stomping it.
	if m.state == StateUploading {
		return ErrUploadInFlight
	}

	if err != nil {
		if errors.Is(err, rest.ErrAuthExpired) {
			m.expireLocked()
			return rest.ErrAuthExpired
		}
		// No retry and no partial state: log it and show an empty list.
		log.Printf("ERROR: Failed to fetch trips: %v", err)
		trips = []rest.Trip{}
	}
	m.trips = trips

	m.selected = nil
	if len(m.trips) > 0 {
		first := m.trips[0].ID
		m.selected = &first
	}

	m.state = StateReady
	return nil
}

// SelectTrip selects the trip at index i in the fetched list. A pure state
// swap with no network effect; legal whenever no upload is in flight.
func (m *Machine) SelectTrip(i int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateUploading {
		return ErrUploadInFlight
	}
	if i < 0 || i >= len(m.trips) {
		return ErrNoSuchTrip
	}
	id := m.trips[i].ID
	m.selected = &id
	return nil
}

// SelectTripID selects the trip with the given id.
func (m *Machine) SelectTripID(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateUploading {
		return ErrUploadInFlight
	}
	for _, t := range m.trips {
		if t.ID == id {
			m.selected = &id
			return nil
		}
	}
	return ErrNoSuchTrip
}

// PickImage stages an image for upload, replacing any previous pick.
func (m *Machine) PickImage(img PickedImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateUploading {
		return ErrUploadInFlight
	}
	if m.state == StateUnauthenticated {
		return ErrNotAuthenticated
	}
	m.image = &img
	m.state = StateImagePicked
	return nil
}

// ClearImage drops the staged image.
func (m *Machine) ClearImage() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateUploading {
		return ErrUploadInFlight
	}
	m.image = nil
	if m.state == StateImagePicked {
		m.state = StateReady
	}
	return nil
}

// Upload sends the staged image to the selected trip. Preconditions are
// hard: a missing image or missing selection fails locally without a
// network call. A second Upload while one is pending is rejected. On
// success the image is cleared and the selection is retained. A 401
// destroys the session: the store is cleared and the machine returns to
// Unauthenticated. Any other failure keeps the image staged so the user
// can re-invoke; there is no automatic retry.
func (m *Machine) Upload(ctx context.Context) (*rest.UploadAck, error) {
	m.mu.Lock()
	if m.state == StateUploading {
		m.mu.Unlock()
		return nil, ErrUploadInFlight
	}
	if m.state == StateUnauthenticated || m.sess == nil {
		m.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	if m.image == nil {
		m.mu.Unlock()
		return nil, ErrNoImagePicked
	}
	if m.selected == nil {
		m.mu.Unlock()
		return nil, ErrNoTripSelected
	}

	img := *m.image
	tripID := *m.selected
	open := m.openImage
	m.state = StateUploading
	m.mu.Unlock()

	ack, err := m.doUpload(ctx, tripID, img, open)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		if errors.Is(err, rest.ErrAuthExpired) {
			m.expireLocked()
			return nil, err
		}
		// Retryable: the image stays staged, the selection stays put.
		m.state = StateImagePicked
		return nil, err
	}

	m.image = nil
	m.state = StateReady
	return ack, nil
}

// doUpload runs outside the lock: it opens the image and performs the
// network request.
func (m *Machine) doUpload(ctx context.Context, tripID int, img PickedImage, open func(string) (io.ReadCloser, error)) (*rest.UploadAck, error) {
	contents, err := open(img.URI)
	if err != nil {
		return nil, err
	}
	defer contents.Close()

	return m.api.Upload(ctx, tripID, img.FileName, img.MIMEType, contents)
}

// Logout notifies the server best-effort and always tears down the local
// session.
func (m *Machine) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateUploading {
		return ErrUploadInFlight
	}

	if m.sess != nil {
		if err := m.api.Logout(ctx); err != nil {
			log.Printf("WARN: Logout notification failed: %v", err)
		}
	}
	m.expireLocked()
	return nil
}

// expireLocked clears the session everywhere: store, token, machine state.
// Called with m.mu held.
func (m *Machine) expireLocked() {
	if err := m.store.Delete(); err != nil {
		log.Printf("ERROR: Failed to clear session store: %v", err)
	}
	m.sess = nil
	m.api.SetToken("")
	m.trips = nil
	m.selected = nil
	m.image = nil
	m.state = StateUnauthenticated
}

// --- Observable state ---

// State reports the machine's current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session returns the loaded session, or nil when unauthenticated.
func (m *Machine) Session() *session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return nil
	}
	s := *m.sess
	return &s
}

// Trips returns the fetched trip list snapshot.
func (m *Machine) Trips() []rest.Trip {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]rest.Trip, len(m.trips))
	copy(out, m.trips)
	return out
}

// SelectedTripID returns the selected trip id, with ok=false when nothing
// is selected (empty trip list).
func (m *Machine) SelectedTripID() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selected == nil {
		return 0, false
	}
	return *m.selected, true
}

// SelectionFlags renders the selection as the boolean vector the radio
// list binds to: at most one element is true.
func (m *Machine) SelectionFlags() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	flags := make([]bool, len(m.trips))
	if m.selected == nil {
		return flags
	}
	for i, t := range m.trips {
		if t.ID == *m.selected {
			flags[i] = true
		}
	}
	return flags
}

// Image returns the staged image, or nil when none is picked.
func (m *Machine) Image() *PickedImage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.image == nil {
		return nil
	}
	img := *m.image
	return &img
}
