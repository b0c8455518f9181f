package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hostelhq/hostel-management/internal/model"
	"github.com/hostelhq/hostel-management/internal/notify"
)

// fakeStore is a map-backed Store with snapshot rollback: InTx copies
// all state up front and restores it when fn fails, mirroring the
// real transaction semantics closely enough for engine tests.
type fakeStore struct {
	mu sync.Mutex

	semesters   map[uint64]*model.Semester
	enrollments map[uint64]*model.SemesterEnrollment
	rooms       map[uint64]*model.Room
	assignments map[uint64]*model.StudentRoomAssignment
	users       map[uint64]*model.User
	hostels     map[uint64]*model.Hostel
	plans       map[uint64]*model.SubscriptionPlan
	subs        map[uint64]*model.HostelSubscription
	payments    map[uint64]*model.Payment

	nextID uint64

	// failOn injects an error into the named Tx operation.
	failOn map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		semesters:   map[uint64]*model.Semester{},
		enrollments: map[uint64]*model.SemesterEnrollment{},
		rooms:       map[uint64]*model.Room{},
		assignments: map[uint64]*model.StudentRoomAssignment{},
		users:       map[uint64]*model.User{},
		hostels:     map[uint64]*model.Hostel{},
		plans:       map[uint64]*model.SubscriptionPlan{},
		subs:        map[uint64]*model.HostelSubscription{},
		payments:    map[uint64]*model.Payment{},
		failOn:      map[string]error{},
	}
}

func (s *fakeStore) id() uint64 {
	s.nextID++
	return s.nextID
}

func copyMap[K comparable, V any](m map[K]*V) map[K]*V {
	out := make(map[K]*V, len(m))
	for k, v := range m {
		c := *v
		out[k] = &c
	}
	return out
}

type snapshot struct {
	semesters   map[uint64]*model.Semester
	enrollments map[uint64]*model.SemesterEnrollment
	rooms       map[uint64]*model.Room
	assignments map[uint64]*model.StudentRoomAssignment
	users       map[uint64]*model.User
	hostels     map[uint64]*model.Hostel
	plans       map[uint64]*model.SubscriptionPlan
	subs        map[uint64]*model.HostelSubscription
	payments    map[uint64]*model.Payment
	nextID      uint64
}

func (s *fakeStore) snapshot() snapshot {
	return snapshot{
		semesters:   copyMap(s.semesters),
		enrollments: copyMap(s.enrollments),
		rooms:       copyMap(s.rooms),
		assignments: copyMap(s.assignments),
		users:       copyMap(s.users),
		hostels:     copyMap(s.hostels),
		plans:       copyMap(s.plans),
		subs:        copyMap(s.subs),
		payments:    copyMap(s.payments),
		nextID:      s.nextID,
	}
}

// restoreMap rolls dst back to the snapshot while keeping the original
// pointers alive, so seed-helper return values still alias store state
// after a rollback.
func restoreMap[K comparable, V any](dst, sn map[K]*V) {
	for k := range dst {
		if _, ok := sn[k]; !ok {
			delete(dst, k)
		}
	}
	for k, v := range sn {
		if cur, ok := dst[k]; ok {
			*cur = *v
		} else {
			dst[k] = v
		}
	}
}

func (s *fakeStore) restore(sn snapshot) {
	restoreMap(s.semesters, sn.semesters)
	restoreMap(s.enrollments, sn.enrollments)
	restoreMap(s.rooms, sn.rooms)
	restoreMap(s.assignments, sn.assignments)
	restoreMap(s.users, sn.users)
	restoreMap(s.hostels, sn.hostels)
	restoreMap(s.plans, sn.plans)
	restoreMap(s.subs, sn.subs)
	restoreMap(s.payments, sn.payments)
	s.nextID = sn.nextID
}

func (s *fakeStore) InTx(_ context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn := s.snapshot()
	if err := fn(&fakeTx{s: s}); err != nil {
		s.restore(sn)
		return err
	}
	return nil
}

// --- seed helpers ---

func (s *fakeStore) addHostel(name string) *model.Hostel {
	h := &model.Hostel{ID: s.id(), Name: name, IsActive: true}
	s.hostels[h.ID] = h
	return h
}

func (s *fakeStore) addUser(email, role string, hostelID *uint64) *model.User {
	u := &model.User{ID: s.id(), Email: email, Role: role, HostelID: hostelID, IsActive: true}
	s.users[u.ID] = u
	return u
}

func (s *fakeStore) addRoom(hostelID uint64, number string, capacity uint32, status string) *model.Room {
	r := &model.Room{ID: s.id(), HostelID: hostelID, Number: number, Capacity: capacity, Status: status}
	s.rooms[r.ID] = r
	return r
}

func (s *fakeStore) addSemester(hostelID uint64, name, status string, start, end time.Time) *model.Semester {
	sem := &model.Semester{ID: s.id(), HostelID: hostelID, Name: name, Status: status, StartDate: start, EndDate: end}
	s.semesters[sem.ID] = sem
	return sem
}

func (s *fakeStore) addEnrollment(semesterID, userID uint64, roomID *uint64, status string) *model.SemesterEnrollment {
	e := &model.SemesterEnrollment{ID: s.id(), SemesterID: semesterID, UserID: userID, RoomID: roomID, Status: status}
	s.enrollments[e.ID] = e
	return e
}

func (s *fakeStore) addAssignment(roomID, userID uint64, semesterID *uint64, status string) *model.StudentRoomAssignment {
	a := &model.StudentRoomAssignment{ID: s.id(), RoomID: roomID, UserID: userID, SemesterID: semesterID, Status: status}
	s.assignments[a.ID] = a
	return a
}

func (s *fakeStore) addPlan(name string, durationDays int, active bool) *model.SubscriptionPlan {
	p := &model.SubscriptionPlan{ID: s.id(), Name: name, DurationDays: durationDays, IsActive: active}
	s.plans[p.ID] = p
	return p
}

func (s *fakeStore) addSubscription(hostelID uint64, end time.Time, status string) *model.HostelSubscription {
	sub := &model.HostelSubscription{ID: s.id(), HostelID: hostelID, PlanID: 1, EndDate: end, Status: status}
	s.subs[sub.ID] = sub
	return sub
}

// sortedIDs yields deterministic iteration order.
func sortedIDs[V any](m map[uint64]*V) []uint64 {
	ids := make([]uint64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// --- Store reads ---

func (s *fakeStore) SemesterByID(_ context.Context, id uint64) (*model.Semester, error) {
	sem, ok := s.semesters[id]
	if !ok {
		return nil, fmt.Errorf("%w: semester %d", ErrNotFound, id)
	}
	c := *sem
	return &c, nil
}

func (s *fakeStore) ActiveSemestersEndedBefore(_ context.Context, day time.Time) ([]model.Semester, error) {
	var out []model.Semester
	for _, id := range sortedIDs(s.semesters) {
		sem := s.semesters[id]
		if sem.Status == model.SemesterActive && sem.EndDate.Before(day) {
			out = append(out, *sem)
		}
	}
	return out, nil
}

func (s *fakeStore) UpcomingSemestersStartingBetween(_ context.Context, from, to time.Time) ([]model.Semester, error) {
	var out []model.Semester
	for _, id := range sortedIDs(s.semesters) {
		sem := s.semesters[id]
		if sem.Status == model.SemesterUpcoming && !sem.StartDate.Before(from) && !sem.StartDate.After(to) {
			out = append(out, *sem)
		}
	}
	return out, nil
}

func (s *fakeStore) ActiveEnrollmentsBySemester(_ context.Context, semesterID uint64) ([]model.SemesterEnrollment, error) {
	var out []model.SemesterEnrollment
	for _, id := range sortedIDs(s.enrollments) {
		e := s.enrollments[id]
		if e.SemesterID == semesterID && e.Status == model.EnrollmentActive {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *fakeStore) UserByID(_ context.Context, id uint64) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	c := *u
	return &c, nil
}

func (s *fakeStore) HostelStaff(_ context.Context, hostelID uint64) ([]model.User, error) {
	var out []model.User
	for _, id := range sortedIDs(s.users) {
		u := s.users[id]
		if u.HostelID != nil && *u.HostelID == hostelID &&
			(u.Role == model.RoleHostelAdmin || u.Role == model.RoleCustodian) {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *fakeStore) SuperAdmins(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, id := range sortedIDs(s.users) {
		if s.users[id].Role == model.RoleSuperAdmin {
			out = append(out, *s.users[id])
		}
	}
	return out, nil
}

func (s *fakeStore) HostelByID(_ context.Context, id uint64) (*model.Hostel, error) {
	h, ok := s.hostels[id]
	if !ok {
		return nil, fmt.Errorf("%w: hostel %d", ErrNotFound, id)
	}
	c := *h
	return &c, nil
}

func (s *fakeStore) ActiveSubscriptions(_ context.Context) ([]model.HostelSubscription, error) {
	var out []model.HostelSubscription
	for _, id := range sortedIDs(s.subs) {
		if s.subs[id].Status == model.SubscriptionActive {
			out = append(out, *s.subs[id])
		}
	}
	return out, nil
}

func (s *fakeStore) SubscriptionsExpiringBetween(_ context.Context, from, to time.Time) ([]model.HostelSubscription, error) {
	var out []model.HostelSubscription
	for _, id := range sortedIDs(s.subs) {
		sub := s.subs[id]
		if sub.Status == model.SubscriptionActive && !sub.EndDate.Before(from) && !sub.EndDate.After(to) {
			out = append(out, *sub)
		}
	}
	return out, nil
}

// --- Tx ---

type fakeTx struct{ s *fakeStore }

func (t *fakeTx) fail(op string) error { return t.s.failOn[op] }

func (t *fakeTx) GetSemester(ctx context.Context, id uint64) (*model.Semester, error) {
	if err := t.fail("GetSemester"); err != nil {
		return nil, err
	}
	return t.s.SemesterByID(ctx, id)
}

func (t *fakeTx) InsertSemester(_ context.Context, sem *model.Semester) error {
	if err := t.fail("InsertSemester"); err != nil {
		return err
	}
	sem.ID = t.s.id()
	c := *sem
	t.s.semesters[sem.ID] = &c
	return nil
}

func (t *fakeTx) UnsetCurrentSemesters(_ context.Context, hostelID uint64) error {
	if err := t.fail("UnsetCurrentSemesters"); err != nil {
		return err
	}
	for _, sem := range t.s.semesters {
		if sem.HostelID == hostelID {
			sem.IsCurrent = false
		}
	}
	return nil
}

func (t *fakeTx) SetSemesterCurrent(_ context.Context, id uint64) error {
	if err := t.fail("SetSemesterCurrent"); err != nil {
		return err
	}
	sem, ok := t.s.semesters[id]
	if !ok {
		return fmt.Errorf("%w: semester %d", ErrNotFound, id)
	}
	sem.IsCurrent = true
	sem.Status = model.SemesterActive
	return nil
}

func (t *fakeTx) SetSemesterStatus(_ context.Context, id uint64, status string) error {
	if err := t.fail("SetSemesterStatus"); err != nil {
		return err
	}
	sem, ok := t.s.semesters[id]
	if !ok {
		return fmt.Errorf("%w: semester %d", ErrNotFound, id)
	}
	sem.Status = status
	if status == model.SemesterCompleted || status == model.SemesterCancelled {
		sem.IsCurrent = false
	}
	return nil
}

func (t *fakeTx) GetEnrollment(_ context.Context, id uint64) (*model.SemesterEnrollment, error) {
	if err := t.fail("GetEnrollment"); err != nil {
		return nil, err
	}
	e, ok := t.s.enrollments[id]
	if !ok {
		return nil, fmt.Errorf("%w: enrollment %d", ErrNotFound, id)
	}
	c := *e
	return &c, nil
}

func (t *fakeTx) FindEnrollment(_ context.Context, semesterID, userID uint64) (*model.SemesterEnrollment, error) {
	if err := t.fail("FindEnrollment"); err != nil {
		return nil, err
	}
	for _, id := range sortedIDs(t.s.enrollments) {
		e := t.s.enrollments[id]
		if e.SemesterID == semesterID && e.UserID == userID {
			c := *e
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: enrollment for user %d", ErrNotFound, userID)
}

func (t *fakeTx) InsertEnrollment(_ context.Context, e *model.SemesterEnrollment) error {
	if err := t.fail("InsertEnrollment"); err != nil {
		return err
	}
	e.ID = t.s.id()
	c := *e
	t.s.enrollments[e.ID] = &c
	return nil
}

func (t *fakeTx) SetEnrollmentStatus(_ context.Context, id uint64, status string, completedAt *time.Time) error {
	if err := t.fail("SetEnrollmentStatus"); err != nil {
		return err
	}
	e, ok := t.s.enrollments[id]
	if !ok {
		return fmt.Errorf("%w: enrollment %d", ErrNotFound, id)
	}
	e.Status = status
	if completedAt != nil {
		c := *completedAt
		e.CompletedAt = &c
	}
	return nil
}

func (t *fakeTx) ReactivateEnrollment(_ context.Context, id uint64, roomID *uint64, enrolledAt time.Time) error {
	if err := t.fail("ReactivateEnrollment"); err != nil {
		return err
	}
	e, ok := t.s.enrollments[id]
	if !ok {
		return fmt.Errorf("%w: enrollment %d", ErrNotFound, id)
	}
	e.Status = model.EnrollmentActive
	e.RoomID = roomID
	e.EnrollmentDate = enrolledAt
	e.CompletedAt = nil
	return nil
}

func (t *fakeTx) CompleteActiveEnrollments(_ context.Context, semesterID uint64, now time.Time) ([]model.SemesterEnrollment, error) {
	if err := t.fail("CompleteActiveEnrollments"); err != nil {
		return nil, err
	}
	var before []model.SemesterEnrollment
	for _, id := range sortedIDs(t.s.enrollments) {
		e := t.s.enrollments[id]
		if e.SemesterID == semesterID && e.Status == model.EnrollmentActive {
			before = append(before, *e)
			e.Status = model.EnrollmentCompleted
			ts := now
			e.CompletedAt = &ts
		}
	}
	return before, nil
}

func (t *fakeTx) ActiveEnrollments(_ context.Context, semesterID uint64) ([]model.SemesterEnrollment, error) {
	if err := t.fail("ActiveEnrollments"); err != nil {
		return nil, err
	}
	return t.s.ActiveEnrollmentsBySemester(context.Background(), semesterID)
}

func (t *fakeTx) GetRoom(_ context.Context, id uint64) (*model.Room, error) {
	if err := t.fail("GetRoom"); err != nil {
		return nil, err
	}
	r, ok := t.s.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: room %d", ErrNotFound, id)
	}
	c := *r
	return &c, nil
}

func (t *fakeTx) CountActiveAssignments(_ context.Context, roomID uint64) (int, error) {
	if err := t.fail("CountActiveAssignments"); err != nil {
		return 0, err
	}
	n := 0
	for _, a := range t.s.assignments {
		if a.RoomID == roomID && a.Status == model.AssignmentActive {
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) FindActiveAssignment(_ context.Context, roomID, userID uint64) (*model.StudentRoomAssignment, error) {
	if err := t.fail("FindActiveAssignment"); err != nil {
		return nil, err
	}
	for _, id := range sortedIDs(t.s.assignments) {
		a := t.s.assignments[id]
		if a.RoomID == roomID && a.UserID == userID && a.Status == model.AssignmentActive {
			c := *a
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: assignment in room %d", ErrNotFound, roomID)
}

func (t *fakeTx) InsertAssignment(_ context.Context, a *model.StudentRoomAssignment) error {
	if err := t.fail("InsertAssignment"); err != nil {
		return err
	}
	a.ID = t.s.id()
	c := *a
	t.s.assignments[a.ID] = &c
	return nil
}

func (t *fakeTx) EndAssignments(_ context.Context, semesterID, userID uint64, now time.Time) (int, error) {
	if err := t.fail("EndAssignments"); err != nil {
		return 0, err
	}
	n := 0
	for _, a := range t.s.assignments {
		if a.SemesterID != nil && *a.SemesterID == semesterID && a.UserID == userID && a.Status == model.AssignmentActive {
			a.Status = model.AssignmentEnded
			ts := now
			a.EndedAt = &ts
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) EndAssignmentsForRoom(_ context.Context, roomID uint64, now time.Time) (int, error) {
	if err := t.fail("EndAssignmentsForRoom"); err != nil {
		return 0, err
	}
	n := 0
	for _, a := range t.s.assignments {
		if a.RoomID == roomID && a.Status == model.AssignmentActive {
			a.Status = model.AssignmentEnded
			ts := now
			a.EndedAt = &ts
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) SetRoomStatus(_ context.Context, roomID uint64, status string) error {
	if err := t.fail("SetRoomStatus"); err != nil {
		return err
	}
	r, ok := t.s.rooms[roomID]
	if !ok {
		return fmt.Errorf("%w: room %d", ErrNotFound, roomID)
	}
	r.Status = status
	return nil
}

func (t *fakeTx) DeleteRoom(_ context.Context, roomID uint64) error {
	if err := t.fail("DeleteRoom"); err != nil {
		return err
	}
	delete(t.s.rooms, roomID)
	return nil
}

func (t *fakeTx) InsertPayment(_ context.Context, p *model.Payment) error {
	if err := t.fail("InsertPayment"); err != nil {
		return err
	}
	p.ID = t.s.id()
	c := *p
	t.s.payments[p.ID] = &c
	return nil
}

func (t *fakeTx) GetHostel(ctx context.Context, id uint64) (*model.Hostel, error) {
	if err := t.fail("GetHostel"); err != nil {
		return nil, err
	}
	return t.s.HostelByID(ctx, id)
}

func (t *fakeTx) GetPlan(_ context.Context, id uint64) (*model.SubscriptionPlan, error) {
	if err := t.fail("GetPlan"); err != nil {
		return nil, err
	}
	p, ok := t.s.plans[id]
	if !ok {
		return nil, fmt.Errorf("%w: plan %d", ErrNotFound, id)
	}
	c := *p
	return &c, nil
}

func (t *fakeTx) InsertSubscription(_ context.Context, sub *model.HostelSubscription) error {
	if err := t.fail("InsertSubscription"); err != nil {
		return err
	}
	sub.ID = t.s.id()
	c := *sub
	t.s.subs[sub.ID] = &c
	return nil
}

func (t *fakeTx) ExpireSubscription(_ context.Context, id uint64) error {
	if err := t.fail("ExpireSubscription"); err != nil {
		return err
	}
	sub, ok := t.s.subs[id]
	if !ok {
		return fmt.Errorf("%w: subscription %d", ErrNotFound, id)
	}
	if sub.Status == model.SubscriptionActive {
		sub.Status = model.SubscriptionExpired
	}
	return nil
}

func (t *fakeTx) SetHostelCurrentSubscription(_ context.Context, hostelID, subscriptionID uint64) error {
	if err := t.fail("SetHostelCurrentSubscription"); err != nil {
		return err
	}
	h, ok := t.s.hostels[hostelID]
	if !ok {
		return fmt.Errorf("%w: hostel %d", ErrNotFound, hostelID)
	}
	sid := subscriptionID
	h.CurrentSubscriptionID = &sid
	return nil
}

// recordingNotifier captures notifications; failFor makes sends to
// one recipient fail.
type recordingNotifier struct {
	mu      sync.Mutex
	sent    []sentNotification
	failFor string
}

type sentNotification struct {
	Recipient string
	Kind      notify.Kind
	Data      map[string]any
}

func (n *recordingNotifier) Notify(_ context.Context, recipient string, kind notify.Kind, data map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failFor != "" && recipient == n.failFor {
		return fmt.Errorf("smtp refused %s", recipient)
	}
	n.sent = append(n.sent, sentNotification{Recipient: recipient, Kind: kind, Data: data})
	return nil
}

func (n *recordingNotifier) byKind(kind notify.Kind) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentNotification
	for _, sn := range n.sent {
		if sn.Kind == kind {
			out = append(out, sn)
		}
	}
	return out
}
