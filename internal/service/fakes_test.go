package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"livepoll/internal/model"
	"livepoll/internal/repository"
)

// manualClock fires timers only when Advance moves time past their deadline.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	c       *manualClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{c: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// Advance moves time forward and runs due callbacks in deadline order.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	for {
		due := c.due()
		if due == nil {
			break
		}
		due.fired = true
		c.mu.Unlock()
		due.f()
		c.mu.Lock()
	}
	c.mu.Unlock()
}

func (c *manualClock) due() *manualTimer {
	var pending []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			pending = append(pending, t)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].at.Before(pending[j].at) })
	return pending[0]
}

// Pending counts timers that are armed and not yet fired.
func (c *manualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type sent struct {
	Room      string
	SessionID int64
	Event     string
	Payload   any
	Keep      func(model.StaffIdentity) bool
}

// recordingBroadcaster stores every event in send order.
type recordingBroadcaster struct {
	mu       sync.Mutex
	events   []sent
	audience map[int64]int
}

func newRecorder() *recordingBroadcaster {
	return &recordingBroadcaster{audience: make(map[int64]int)}
}

func (r *recordingBroadcaster) add(e sent) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recordingBroadcaster) ToStaff(sessionID int64, event string, payload any) {
	r.add(sent{Room: "staff", SessionID: sessionID, Event: event, Payload: payload})
}

func (r *recordingBroadcaster) ToAudience(sessionID int64, event string, payload any) {
	r.add(sent{Room: "audience", SessionID: sessionID, Event: event, Payload: payload})
}

func (r *recordingBroadcaster) ToStaffFiltered(sessionID int64, event string, payload any, keep func(model.StaffIdentity) bool) {
	r.add(sent{Room: "staff", SessionID: sessionID, Event: event, Payload: payload, Keep: keep})
}

func (r *recordingBroadcaster) CountAudience(sessionID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.audience[sessionID]
}

func (r *recordingBroadcaster) all() []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sent(nil), r.events...)
}

// names lists "room:event" in order.
func (r *recordingBroadcaster) names() []string {
	var out []string
	for _, e := range r.all() {
		out = append(out, e.Room+":"+e.Event)
	}
	return out
}

func (r *recordingBroadcaster) count(room, event string) int {
	n := 0
	for _, e := range r.all() {
		if e.Room == room && e.Event == event {
			n++
		}
	}
	return n
}

func (r *recordingBroadcaster) last(room, event string) (sent, bool) {
	events := r.all()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Room == room && events[i].Event == event {
			return events[i], true
		}
	}
	return sent{}, false
}

func (r *recordingBroadcaster) reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

type memSeq struct {
	mu sync.Mutex
	n  int64
}

func (s *memSeq) next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

type memUsers struct {
	mu    sync.Mutex
	seq   memSeq
	users map[int64]*model.User
}

func newMemUsers() *memUsers { return &memUsers{users: make(map[int64]*model.User)} }

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = m.seq.next()
	u.CreatedAt = time.Now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) TokenVersion(_ context.Context, id int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return u.TokenVersion, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id int64, hash string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	u.PasswordHash = hash
	u.TokenVersion++
	return u.TokenVersion, nil
}

type memSessions struct {
	mu       sync.Mutex
	seq      memSeq
	sessions map[int64]*model.Session
}

func newMemSessions() *memSessions { return &memSessions{sessions: make(map[int64]*model.Session)} }

func (m *memSessions) Create(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = m.seq.next()
	s.CreatedAt = time.Now()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memSessions) get(id int64) *model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	cp := *s
	return &cp
}

func (m *memSessions) GetByID(_ context.Context, id int64) (*model.Session, error) {
	return m.get(id), nil
}

func (m *memSessions) GetByJoinCode(_ context.Context, code string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.JoinCode == code {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memSessions) ListByPresenter(_ context.Context, presenterID int64) ([]*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Session{}
	for _, s := range m.sessions {
		if s.PresenterID == presenterID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memSessions) Update(_ context.Context, id int64, upd model.SessionUpdate) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	if upd.Title != nil {
		s.Title = *upd.Title
	}
	if upd.Description != nil {
		s.Description = *upd.Description
	}
	if upd.IsActive != nil {
		s.IsActive = *upd.IsActive
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) SetSelectedQuestion(_ context.Context, id int64, questionID *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.SelectedQuestionID = copyID(questionID)
	return nil
}

func (m *memSessions) JoinCodeExists(ctx context.Context, code string) (bool, error) {
	s, err := m.GetByJoinCode(ctx, code)
	return s != nil, err
}

func (m *memSessions) IsOwnedBy(_ context.Context, id, userID int64) (bool, error) {
	s := m.get(id)
	return s != nil && s.PresenterID == userID, nil
}

func (m *memSessions) Exists(_ context.Context, id int64) (bool, error) {
	return m.get(id) != nil, nil
}

func (m *memSessions) IsActive(_ context.Context, id int64) (bool, error) {
	s := m.get(id)
	return s != nil && s.IsActive, nil
}

type memQuestions struct {
	mu        sync.Mutex
	seq       memSeq
	questions map[int64]*model.Question

	closeErr  error
	reopenErr error
	// closeGate, when set, blocks MarkClosed until it is closed.
	closeGate   chan struct{}
	closeCalled chan int64
	closedCalls int
	reopenCalls int
}

func newMemQuestions() *memQuestions {
	return &memQuestions{questions: make(map[int64]*model.Question)}
}

func (m *memQuestions) Create(_ context.Context, q *model.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q.ID = m.seq.next()
	q.CreatedAt = time.Now()
	cp := *q
	m.questions[q.ID] = &cp
	return nil
}

func (m *memQuestions) GetByID(_ context.Context, id int64) (*model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[id]
	if !ok {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

func (m *memQuestions) ListBySession(_ context.Context, sessionID int64) ([]*model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Question{}
	for _, q := range m.questions {
		if q.SessionID == sessionID {
			cp := *q
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memQuestions) Update(_ context.Context, id int64, upd model.QuestionUpdate) (*model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[id]
	if !ok {
		return nil, nil
	}
	if upd.Text != nil {
		q.Text = *upd.Text
	}
	if upd.Type != nil {
		q.Type = *upd.Type
	}
	if upd.Options != nil {
		q.Options = upd.Options
	}
	if upd.CorrectAnswer != nil {
		q.CorrectAnswer = *upd.CorrectAnswer
	}
	if upd.TimeLimit != nil {
		q.TimeLimit = upd.TimeLimit
	}
	cp := *q
	return &cp, nil
}

func (m *memQuestions) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.questions, id)
	return nil
}

func (m *memQuestions) MarkClosed(_ context.Context, id int64) error {
	m.mu.Lock()
	gate, called := m.closeGate, m.closeCalled
	m.mu.Unlock()
	if called != nil {
		called <- id
	}
	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.closedCalls++
	if m.closeErr != nil {
		return m.closeErr
	}
	if q, ok := m.questions[id]; ok {
		now := time.Now()
		q.IsActive = false
		q.ClosedAt = &now
	}
	return nil
}

func (m *memQuestions) MarkReopened(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reopenCalls++
	if m.reopenErr != nil {
		return m.reopenErr
	}
	if q, ok := m.questions[id]; ok {
		q.IsActive = true
		q.ClosedAt = nil
	}
	return nil
}

func (m *memQuestions) active(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[id]
	return ok && q.IsActive
}

type memParticipants struct {
	mu           sync.Mutex
	seq          memSeq
	participants map[int64]*model.Participant
	sessions     *memSessions
}

func newMemParticipants(sessions *memSessions) *memParticipants {
	return &memParticipants{participants: make(map[int64]*model.Participant), sessions: sessions}
}

func (m *memParticipants) Create(_ context.Context, p *model.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.seq.next()
	p.JoinedAt = time.Now()
	p.LastActiveAt = p.JoinedAt
	cp := *p
	m.participants[p.ID] = &cp
	return nil
}

func (m *memParticipants) ResolveByToken(_ context.Context, token string) (*model.Participant, error) {
	m.mu.Lock()
	var found *model.Participant
	for _, p := range m.participants {
		if p.Token == token {
			cp := *p
			found = &cp
		}
	}
	m.mu.Unlock()
	if found == nil {
		return nil, nil
	}
	s := m.sessions.get(found.SessionID)
	found.SessionActive = s != nil && s.IsActive
	return found, nil
}

func (m *memParticipants) CountBySession(_ context.Context, sessionID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.participants {
		if p.SessionID == sessionID {
			n++
		}
	}
	return n, nil
}

func (m *memParticipants) TouchLastActive(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.participants[id]; ok {
		p.LastActiveAt = time.Now()
	}
	return nil
}

type memResponses struct {
	mu        sync.Mutex
	seq       memSeq
	responses map[int64]*model.Response
}

func newMemResponses() *memResponses {
	return &memResponses{responses: make(map[int64]*model.Response)}
}

func (m *memResponses) Create(_ context.Context, r *model.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.responses {
		if existing.QuestionID == r.QuestionID && existing.ParticipantID == r.ParticipantID {
			return repository.ErrDuplicate
		}
	}
	r.ID = m.seq.next()
	r.CreatedAt = time.Now()
	cp := *r
	m.responses[r.ID] = &cp
	return nil
}

func (m *memResponses) GetByParticipant(_ context.Context, questionID, participantID int64) (*model.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.responses {
		if r.QuestionID == questionID && r.ParticipantID == participantID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memResponses) ListByQuestion(_ context.Context, questionID int64) ([]*model.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Response{}
	for _, r := range m.responses {
		if r.QuestionID == questionID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memResponses) CountByQuestion(ctx context.Context, questionID int64) (int64, error) {
	list, err := m.ListByQuestion(ctx, questionID)
	return int64(len(list)), err
}

func (m *memResponses) DeleteByQuestion(_ context.Context, questionID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.responses {
		if r.QuestionID == questionID {
			delete(m.responses, id)
		}
	}
	return nil
}

type recordingInvalidator struct {
	mu       sync.Mutex
	sessions []int64
}

func (r *recordingInvalidator) InvalidateForSession(sessionID int64) {
	r.mu.Lock()
	r.sessions = append(r.sessions, sessionID)
	r.mu.Unlock()
}

func (r *recordingInvalidator) calls() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.sessions...)
}

var (
	_ repository.UserRepo        = (*memUsers)(nil)
	_ repository.SessionRepo     = (*memSessions)(nil)
	_ repository.QuestionRepo    = (*memQuestions)(nil)
	_ repository.ParticipantRepo = (*memParticipants)(nil)
	_ repository.ResponseRepo    = (*memResponses)(nil)
	_ Broadcaster                = (*recordingBroadcaster)(nil)
	_ QuestionStore              = (*memQuestions)(nil)
	_ SessionStore               = (*memSessions)(nil)
	_ ParticipantStore           = (*memParticipants)(nil)
)
