package serviceimpl

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"faceclock/domain/models"
	"faceclock/domain/services"
)

// In-memory fakes for the repository and cache ports. They hold plain maps
// and slices and record the calls the tests assert on.

type fakePersonRepo struct {
	persons       map[uuid.UUID]*models.Person
	isActiveCalls int
	getByIDCalls  int
	lastSeen      map[uuid.UUID]time.Time
}

func newFakePersonRepo() *fakePersonRepo {
	return &fakePersonRepo{
		persons:  make(map[uuid.UUID]*models.Person),
		lastSeen: make(map[uuid.UUID]time.Time),
	}
}

func (f *fakePersonRepo) add(p *models.Person) *models.Person {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.persons[p.ID] = p
	return p
}

func (f *fakePersonRepo) Create(ctx context.Context, person *models.Person) error {
	f.add(person)
	return nil
}

func (f *fakePersonRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	f.getByIDCalls++
	p, ok := f.persons[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *p
	return &copy, nil
}

func (f *fakePersonRepo) GetByEmail(ctx context.Context, email string) (*models.Person, error) {
	for _, p := range f.persons {
		if p.Email == email {
			copy := *p
			return &copy, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePersonRepo) List(ctx context.Context, offset, limit int) ([]models.Person, int64, error) {
	all := make([]models.Person, 0, len(f.persons))
	for _, p := range f.persons {
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (f *fakePersonRepo) Update(ctx context.Context, id uuid.UUID, person *models.Person) error {
	f.persons[id] = person
	return nil
}

func (f *fakePersonRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	p, ok := f.persons[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.IsActive = active
	return nil
}

func (f *fakePersonRepo) UpdateLastSeen(ctx context.Context, id uuid.UUID, seenAt time.Time) error {
	f.lastSeen[id] = seenAt
	return nil
}

func (f *fakePersonRepo) IsActive(ctx context.Context, id uuid.UUID) (bool, error) {
	f.isActiveCalls++
	p, ok := f.persons[id]
	if !ok {
		return false, nil
	}
	return p.IsActive, nil
}

func (f *fakePersonRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.persons)), nil
}

func (f *fakePersonRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.persons, id)
	return nil
}

type fakeDescriptorRepo struct {
	descriptors    []models.FaceDescriptor
	createBatchErr error
}

func (f *fakeDescriptorRepo) Create(ctx context.Context, descriptor *models.FaceDescriptor) error {
	if descriptor.ID == uuid.Nil {
		descriptor.ID = uuid.New()
	}
	f.descriptors = append(f.descriptors, *descriptor)
	return nil
}

func (f *fakeDescriptorRepo) CreateBatch(ctx context.Context, descriptors []*models.FaceDescriptor) error {
	if f.createBatchErr != nil {
		return f.createBatchErr
	}
	for _, d := range descriptors {
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		if d.UpdatedAt.IsZero() {
			d.UpdatedAt = time.Now()
		}
		f.descriptors = append(f.descriptors, *d)
	}
	return nil
}

func (f *fakeDescriptorRepo) GetByPerson(ctx context.Context, personID uuid.UUID) ([]models.FaceDescriptor, error) {
	var out []models.FaceDescriptor
	for _, d := range f.descriptors {
		if d.PersonID == personID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDescriptorRepo) GetAllActive(ctx context.Context) ([]models.FaceDescriptor, error) {
	return f.descriptors, nil
}

func (f *fakeDescriptorRepo) DeleteByPerson(ctx context.Context, personID uuid.UUID) (int64, error) {
	var kept []models.FaceDescriptor
	var removed int64
	for _, d := range f.descriptors {
		if d.PersonID == personID {
			removed++
			continue
		}
		kept = append(kept, d)
	}
	f.descriptors = kept
	return removed, nil
}

func (f *fakeDescriptorRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.descriptors)), nil
}

type fakeAttendanceRepo struct {
	events           []models.AttendanceEvent
	createErr        error
	lastInRangeCalls int
}

func (f *fakeAttendanceRepo) Create(ctx context.Context, event *models.AttendanceEvent) error {
	if f.createErr != nil {
		return f.createErr
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeAttendanceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.AttendanceEvent, error) {
	for i := range f.events {
		if f.events[i].ID == id {
			copy := f.events[i]
			return &copy, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAttendanceRepo) GetLastInRange(ctx context.Context, personID uuid.UUID, from, to time.Time) (*models.AttendanceEvent, error) {
	f.lastInRangeCalls++
	var last *models.AttendanceEvent
	for i := range f.events {
		e := f.events[i]
		if e.PersonID != personID || e.Timestamp.Before(from) || !e.Timestamp.Before(to) {
			continue
		}
		if last == nil || e.Timestamp.After(last.Timestamp) {
			copy := e
			last = &copy
		}
	}
	return last, nil
}

func (f *fakeAttendanceRepo) GetByPerson(ctx context.Context, personID uuid.UUID, from, to time.Time, offset, limit int) ([]models.AttendanceEvent, int64, error) {
	var matched []models.AttendanceEvent
	for _, e := range f.events {
		if e.PersonID != personID {
			continue
		}
		if !from.IsZero() && e.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && !e.Timestamp.Before(to) {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Timestamp.After(matched[j].Timestamp) })
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (f *fakeAttendanceRepo) List(ctx context.Context, from, to time.Time, offset, limit int) ([]models.AttendanceEvent, int64, error) {
	var matched []models.AttendanceEvent
	for _, e := range f.events {
		if !from.IsZero() && e.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && !e.Timestamp.Before(to) {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Timestamp.After(matched[j].Timestamp) })
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (f *fakeAttendanceRepo) UpdateType(ctx context.Context, id uuid.UUID, newType models.EventType) error {
	for i := range f.events {
		if f.events[i].ID == id {
			f.events[i].Type = newType
			f.events[i].Corrected = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeAttendanceRepo) CountInRange(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	for _, e := range f.events {
		if !e.Timestamp.Before(from) && e.Timestamp.Before(to) {
			count++
		}
	}
	return count, nil
}

type fakeSessionRepo struct {
	sessions       map[uuid.UUID]*models.Session // keyed by SessionID
	getActiveCalls int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*models.Session)}
}

func (f *fakeSessionRepo) Create(ctx context.Context, session *models.Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	copy := *session
	f.sessions[session.SessionID] = &copy
	return nil
}

func (f *fakeSessionRepo) GetActiveBySessionID(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	f.getActiveCalls++
	s, ok := f.sessions[sessionID]
	if !ok || !s.IsActive || time.Now().After(s.ExpiresAt) {
		return nil, nil
	}
	copy := *s
	return &copy, nil
}

func (f *fakeSessionRepo) GetActiveByPerson(ctx context.Context, personID uuid.UUID) ([]models.Session, error) {
	var out []models.Session
	for _, s := range f.sessions {
		if s.PersonID == personID && s.IsActive && time.Now().Before(s.ExpiresAt) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) Rotate(ctx context.Context, oldSessionID, newSessionID uuid.UUID, expiresAt time.Time) (int64, error) {
	s, ok := f.sessions[oldSessionID]
	if !ok || !s.IsActive {
		return 0, nil
	}
	delete(f.sessions, oldSessionID)
	s.SessionID = newSessionID
	s.ExpiresAt = expiresAt
	f.sessions[newSessionID] = s
	return 1, nil
}

func (f *fakeSessionRepo) Deactivate(ctx context.Context, sessionID uuid.UUID) error {
	if s, ok := f.sessions[sessionID]; ok {
		s.IsActive = false
	}
	return nil
}

func (f *fakeSessionRepo) DeactivateAllByPerson(ctx context.Context, personID uuid.UUID) (int64, error) {
	var count int64
	for _, s := range f.sessions {
		if s.PersonID == personID && s.IsActive {
			s.IsActive = false
			count++
		}
	}
	return count, nil
}

func (f *fakeSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	var count int64
	for sid, s := range f.sessions {
		if !s.IsActive || time.Now().After(s.ExpiresAt) {
			delete(f.sessions, sid)
			count++
		}
	}
	return count, nil
}

type fakeAuditRepo struct {
	entries []models.AuditLog
}

func (f *fakeAuditRepo) Create(ctx context.Context, log *models.AuditLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	f.entries = append(f.entries, *log)
	return nil
}

func (f *fakeAuditRepo) GetRecent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if limit > len(f.entries) {
		limit = len(f.entries)
	}
	return f.entries[len(f.entries)-limit:], nil
}

func (f *fakeAuditRepo) GetByPerson(ctx context.Context, personID uuid.UUID, offset, limit int) ([]models.AuditLog, int64, error) {
	var out []models.AuditLog
	for _, e := range f.entries {
		if e.PersonID != nil && *e.PersonID == personID {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeAuditRepo) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	return 0, nil
}

func (f *fakeAuditRepo) lastAction() models.AuditAction {
	if len(f.entries) == 0 {
		return ""
	}
	return f.entries[len(f.entries)-1].Action
}

type fakeDescriptorCache struct {
	gallery  map[uuid.UUID]models.GalleryEntry
	complete bool

	getErr           error
	putGalleryCalls  int
	putPersonCalls   int
	invalidatedIDs   []uuid.UUID
	lastPutPersonKey uuid.UUID
}

func newFakeDescriptorCache() *fakeDescriptorCache {
	return &fakeDescriptorCache{gallery: make(map[uuid.UUID]models.GalleryEntry)}
}

func (f *fakeDescriptorCache) GetGallery(ctx context.Context) (map[uuid.UUID]models.GalleryEntry, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	if !f.complete {
		return nil, false, nil
	}
	out := make(map[uuid.UUID]models.GalleryEntry, len(f.gallery))
	for k, v := range f.gallery {
		out[k] = v
	}
	return out, true, nil
}

func (f *fakeDescriptorCache) PutGallery(ctx context.Context, gallery map[uuid.UUID]models.GalleryEntry) error {
	f.putGalleryCalls++
	f.gallery = make(map[uuid.UUID]models.GalleryEntry, len(gallery))
	for k, v := range gallery {
		f.gallery[k] = v
	}
	f.complete = true
	return nil
}

func (f *fakeDescriptorCache) PutPerson(ctx context.Context, personID uuid.UUID, entry models.GalleryEntry) error {
	f.putPersonCalls++
	f.lastPutPersonKey = personID
	f.gallery[personID] = entry
	return nil
}

func (f *fakeDescriptorCache) InvalidatePerson(ctx context.Context, personID uuid.UUID) error {
	f.invalidatedIDs = append(f.invalidatedIDs, personID)
	delete(f.gallery, personID)
	return nil
}

func (f *fakeDescriptorCache) Clear(ctx context.Context) error {
	f.gallery = make(map[uuid.UUID]models.GalleryEntry)
	f.complete = false
	return nil
}

type fakeMarkerCache struct {
	markers map[uuid.UUID]*models.RecentAttendanceMarker
	getErr  error
	putErr  error
}

func newFakeMarkerCache() *fakeMarkerCache {
	return &fakeMarkerCache{markers: make(map[uuid.UUID]*models.RecentAttendanceMarker)}
}

func (f *fakeMarkerCache) Get(ctx context.Context, personID uuid.UUID) (*models.RecentAttendanceMarker, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	m, ok := f.markers[personID]
	if !ok {
		return nil, nil
	}
	copy := *m
	return &copy, nil
}

func (f *fakeMarkerCache) Put(ctx context.Context, personID uuid.UUID, marker *models.RecentAttendanceMarker) error {
	if f.putErr != nil {
		return f.putErr
	}
	copy := *marker
	f.markers[personID] = &copy
	return nil
}

func (f *fakeMarkerCache) Invalidate(ctx context.Context, personID uuid.UUID) error {
	delete(f.markers, personID)
	return nil
}

type fakeSessionCache struct {
	projections map[uuid.UUID]*models.SessionProjection
	ttls        map[uuid.UUID]time.Duration
	getErr      error
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{
		projections: make(map[uuid.UUID]*models.SessionProjection),
		ttls:        make(map[uuid.UUID]time.Duration),
	}
}

func (f *fakeSessionCache) Get(ctx context.Context, sessionID uuid.UUID) (*models.SessionProjection, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.projections[sessionID]
	if !ok {
		return nil, nil
	}
	copy := *p
	return &copy, nil
}

func (f *fakeSessionCache) Put(ctx context.Context, sessionID uuid.UUID, projection *models.SessionProjection, ttl time.Duration) error {
	copy := *projection
	f.projections[sessionID] = &copy
	f.ttls[sessionID] = ttl
	return nil
}

func (f *fakeSessionCache) Invalidate(ctx context.Context, sessionID uuid.UUID) error {
	delete(f.projections, sessionID)
	delete(f.ttls, sessionID)
	return nil
}

type fakeRecognition struct {
	match *services.MatchResult
	err   error
}

func (f *fakeRecognition) Identify(ctx context.Context, descriptor []float32) (*services.MatchResult, error) {
	return f.match, f.err
}

func (f *fakeRecognition) IdentifyImage(ctx context.Context, imageData []byte, mimeType string) (*services.MatchResult, error) {
	return f.match, f.err
}

func (f *fakeRecognition) RebuildGallery(ctx context.Context) (int, error) {
	return 0, nil
}

func (f *fakeRecognition) InvalidatePerson(ctx context.Context, personID uuid.UUID) error {
	return nil
}

type fakeAuthService struct {
	revokedAll []uuid.UUID
	revokedBy  []uuid.UUID
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string, client services.ClientInfo) (*services.AuthResult, error) {
	return nil, nil
}

func (f *fakeAuthService) GetGoogleAuthURL(state string) string { return "" }

func (f *fakeAuthService) HandleGoogleCallback(ctx context.Context, code string, client services.ClientInfo) (*services.AuthResult, error) {
	return nil, nil
}

func (f *fakeAuthService) Validate(ctx context.Context, token string) (*services.TokenPrincipal, error) {
	return nil, nil
}

func (f *fakeAuthService) Refresh(ctx context.Context, token string, client services.ClientInfo) (*services.AuthResult, error) {
	return nil, nil
}

func (f *fakeAuthService) Revoke(ctx context.Context, sessionID uuid.UUID) error { return nil }

func (f *fakeAuthService) RevokeAll(ctx context.Context, actorID, personID uuid.UUID) (int64, error) {
	f.revokedBy = append(f.revokedBy, actorID)
	f.revokedAll = append(f.revokedAll, personID)
	return 1, nil
}

func (f *fakeAuthService) Sessions(ctx context.Context, personID uuid.UUID) ([]models.Session, error) {
	return nil, nil
}

func (f *fakeAuthService) CleanupExpired(ctx context.Context) (int64, error) { return 0, nil }

// descriptorAt builds a 128-dim vector whose Euclidean distance from the
// zero vector is exactly d.
func descriptorAt(d float64) []float32 {
	v := make([]float32, models.DescriptorDim)
	v[0] = float32(d)
	return v
}

func zeroProbe() []float32 {
	return make([]float32, models.DescriptorDim)
}
