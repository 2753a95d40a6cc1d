package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/beach-league/models"
)

// memoryData is shared by the in-memory repositories. Records are copied on
// the way in and out so callers never alias stored state.
type memoryData struct {
	mu sync.RWMutex

	accounts    map[string]*models.Account
	players     map[string]*models.PlayerProfile
	tournaments map[string]*models.Tournament
	matches     map[string]*memoryMatch

	// insertion order per collection
	playerOrder     []string
	tournamentOrder []string
	matchOrder      []string
}

type memoryMatch struct {
	match      models.Match
	podiumSlot *string
}

// NewMemoryStore returns a Store kept entirely in process memory.
func NewMemoryStore() *Store {
	data := &memoryData{
		accounts:    make(map[string]*models.Account),
		players:     make(map[string]*models.PlayerProfile),
		tournaments: make(map[string]*models.Tournament),
		matches:     make(map[string]*memoryMatch),
	}
	return &Store{
		Accounts:    &memoryAccounts{data},
		Players:     &memoryPlayers{data},
		Tournaments: &memoryTournaments{data},
		Matches:     &memoryMatches{data},
	}
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}

func clonePlayer(p *models.PlayerProfile) *models.PlayerProfile {
	c := *p
	if p.Age != nil {
		v := *p.Age
		c.Age = &v
	}
	if p.Gender != nil {
		v := *p.Gender
		c.Gender = &v
	}
	if p.AvatarKey != nil {
		v := *p.AvatarKey
		c.AvatarKey = &v
	}
	c.AvatarURL = nil
	return &c
}

func cloneTournament(t *models.Tournament) *models.Tournament {
	c := *t
	c.Categories = cloneStrings(t.Categories)
	c.Participants = cloneStrings(t.Participants)
	if c.Participants == nil {
		c.Participants = []string{}
	}
	if t.Podium != nil {
		c.Podium = &models.Podium{
			Champion:   cloneStrings(t.Podium.Champion),
			RunnerUp:   cloneStrings(t.Podium.RunnerUp),
			ThirdPlace: cloneStrings(t.Podium.ThirdPlace),
		}
	}
	c.Matches = nil
	return &c
}

func cloneMatch(m *models.Match) *models.Match {
	c := *m
	c.Team1 = cloneStrings(m.Team1)
	c.Team2 = cloneStrings(m.Team2)
	c.Winner = cloneStrings(m.Winner)
	if m.Score != nil {
		v := *m.Score
		c.Score = &v
	}
	if m.CompletedAt != nil {
		v := *m.CompletedAt
		c.CompletedAt = &v
	}
	if m.Aces != nil {
		c.Aces = make(map[string]int, len(m.Aces))
		for k, v := range m.Aces {
			c.Aces[k] = v
		}
	}
	return &c
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

type memoryAccounts struct{ d *memoryData }

func (r *memoryAccounts) Create(_ context.Context, a *models.Account) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	a.Email = strings.ToLower(a.Email)
	for _, existing := range r.d.accounts {
		if existing.Email == a.Email {
			return ErrAccountEmailConflict
		}
	}
	a.CreatedAt = time.Now().UTC()
	c := *a
	r.d.accounts[a.ID] = &c
	return nil
}

func (r *memoryAccounts) GetByID(_ context.Context, id string) (*models.Account, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	a, ok := r.d.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	c := *a
	return &c, nil
}

func (r *memoryAccounts) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	email = strings.ToLower(email)
	for _, a := range r.d.accounts {
		if a.Email == email {
			c := *a
			return &c, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (r *memoryAccounts) Delete(_ context.Context, id string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.accounts[id]; !ok {
		return ErrAccountNotFound
	}
	delete(r.d.accounts, id)
	return nil
}

type memoryPlayers struct{ d *memoryData }

func (r *memoryPlayers) Create(_ context.Context, p *models.PlayerProfile) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	p.Email = strings.ToLower(p.Email)
	for _, existing := range r.d.players {
		if existing.Email == p.Email {
			return ErrPlayerEmailConflict
		}
	}
	p.Version = 1
	p.CreatedAt = time.Now().UTC()
	r.d.players[p.ID] = clonePlayer(p)
	r.d.playerOrder = append(r.d.playerOrder, p.ID)
	return nil
}

func (r *memoryPlayers) GetByID(_ context.Context, id string) (*models.PlayerProfile, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	p, ok := r.d.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return clonePlayer(p), nil
}

func (r *memoryPlayers) GetByEmail(_ context.Context, email string) (*models.PlayerProfile, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	email = strings.ToLower(email)
	for _, p := range r.d.players {
		if p.Email == email {
			return clonePlayer(p), nil
		}
	}
	return nil, ErrPlayerNotFound
}

func (r *memoryPlayers) UpdateIdentity(_ context.Context, p *models.PlayerProfile) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	stored, ok := r.d.players[p.ID]
	if !ok {
		return ErrPlayerNotFound
	}
	updated := clonePlayer(p)
	stored.Name = updated.Name
	stored.Age = updated.Age
	stored.Gender = updated.Gender
	return nil
}

func (r *memoryPlayers) UpdateAvatarKey(_ context.Context, id string, avatarKey *string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	stored, ok := r.d.players[id]
	if !ok {
		return ErrPlayerNotFound
	}
	if avatarKey == nil {
		stored.AvatarKey = nil
		return nil
	}
	v := *avatarKey
	stored.AvatarKey = &v
	return nil
}

func (r *memoryPlayers) UpdateStats(_ context.Context, id string, expectedVersion int64, stats models.PlayerStats) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	stored, ok := r.d.players[id]
	if !ok {
		return ErrPlayerNotFound
	}
	if stored.Version != expectedVersion {
		return ErrVersionConflict
	}
	stored.Stats = stats
	stored.Version++
	return nil
}

func (r *memoryPlayers) ListRanked(_ context.Context, limit int) ([]*models.PlayerProfile, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	ranked := make([]*models.PlayerProfile, 0, len(r.d.playerOrder))
	for _, id := range r.d.playerOrder {
		if p := r.d.players[id]; !p.IsAdmin {
			ranked = append(ranked, clonePlayer(p))
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Stats.WinRate > ranked[j].Stats.WinRate
	})
	return page(ranked, limit, 0), nil
}

func (r *memoryPlayers) List(_ context.Context, filter ListPlayersFilter) ([]*models.PlayerProfile, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	players := make([]*models.PlayerProfile, 0, len(r.d.playerOrder))
	for _, id := range page(r.d.playerOrder, filter.Limit, filter.Offset) {
		players = append(players, clonePlayer(r.d.players[id]))
	}
	return players, nil
}

func (r *memoryPlayers) Count(_ context.Context) (int, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	return len(r.d.players), nil
}

type memoryTournaments struct{ d *memoryData }

func (r *memoryTournaments) Create(_ context.Context, t *models.Tournament) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if t.Participants == nil {
		t.Participants = []string{}
	}
	t.CreatedAt = time.Now().UTC()
	r.d.tournaments[t.ID] = cloneTournament(t)
	r.d.tournamentOrder = append(r.d.tournamentOrder, t.ID)
	return nil
}

func (r *memoryTournaments) GetByID(_ context.Context, id string) (*models.Tournament, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	t, ok := r.d.tournaments[id]
	if !ok {
		return nil, ErrTournamentNotFound
	}
	return cloneTournament(t), nil
}

func (r *memoryTournaments) List(_ context.Context, filter ListTournamentsFilter) ([]*models.Tournament, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	result := make([]*models.Tournament, 0, len(r.d.tournamentOrder))
	for _, id := range r.d.tournamentOrder {
		t := r.d.tournaments[id]
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.ParticipantID != nil && !t.HasParticipant(*filter.ParticipantID) {
			continue
		}
		result = append(result, cloneTournament(t))
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].StartDate.Before(result[j].StartDate)
	})
	return page(result, filter.Limit, filter.Offset), nil
}

func (r *memoryTournaments) UpdateDetails(_ context.Context, t *models.Tournament) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	stored, ok := r.d.tournaments[t.ID]
	if !ok {
		return ErrTournamentNotFound
	}
	stored.Name = t.Name
	stored.Description = t.Description
	stored.Location = t.Location
	stored.StartDate = t.StartDate
	stored.EndDate = t.EndDate
	stored.Categories = cloneStrings(t.Categories)
	return nil
}

func (r *memoryTournaments) UpdateStatus(_ context.Context, id string, from, to models.TournamentStatus) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	stored, ok := r.d.tournaments[id]
	if !ok {
		return ErrTournamentNotFound
	}
	if stored.Status != from {
		return ErrStatusConflict
	}
	stored.Status = to
	return nil
}

func (r *memoryTournaments) AddParticipant(_ context.Context, id, playerID string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	stored, ok := r.d.tournaments[id]
	if !ok {
		return ErrTournamentNotFound
	}
	if stored.HasParticipant(playerID) {
		return ErrAlreadyRegistered
	}
	stored.Participants = append(stored.Participants, playerID)
	return nil
}

func (r *memoryTournaments) RemoveParticipant(_ context.Context, id, playerID string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	stored, ok := r.d.tournaments[id]
	if !ok {
		return ErrTournamentNotFound
	}
	kept := stored.Participants[:0]
	removed := false
	for _, pid := range stored.Participants {
		if pid == playerID {
			removed = true
			continue
		}
		kept = append(kept, pid)
	}
	if !removed {
		return ErrNotRegistered
	}
	stored.Participants = kept
	return nil
}

func (r *memoryTournaments) SetPodium(_ context.Context, id string, podium models.Podium) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	stored, ok := r.d.tournaments[id]
	if !ok {
		return ErrTournamentNotFound
	}
	if stored.Podium == nil {
		stored.Podium = &models.Podium{}
	}
	if len(podium.Champion) > 0 {
		stored.Podium.Champion = cloneStrings(podium.Champion)
	}
	if len(podium.RunnerUp) > 0 {
		stored.Podium.RunnerUp = cloneStrings(podium.RunnerUp)
	}
	if len(podium.ThirdPlace) > 0 {
		stored.Podium.ThirdPlace = cloneStrings(podium.ThirdPlace)
	}
	if stored.Podium.IsEmpty() {
		stored.Podium = nil
	}
	return nil
}

func (r *memoryTournaments) CountByStatus(_ context.Context) (map[models.TournamentStatus]int, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	counts := make(map[models.TournamentStatus]int)
	for _, t := range r.d.tournaments {
		counts[t.Status]++
	}
	return counts, nil
}

type memoryMatches struct{ d *memoryData }

func (r *memoryMatches) Create(_ context.Context, m *models.Match) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.tournaments[m.TournamentID]; !ok {
		return ErrTournamentNotFound
	}
	var slot *string
	if m.Status != models.MatchStatusCancelled {
		slot = podiumSlot(m.Round)
	}
	if slot != nil {
		for _, existing := range r.d.matches {
			if existing.match.TournamentID == m.TournamentID && existing.podiumSlot != nil && *existing.podiumSlot == *slot {
				return ErrPodiumSlotTaken
			}
		}
	}
	m.CreatedAt = time.Now().UTC()
	r.d.matches[m.ID] = &memoryMatch{match: *cloneMatch(m), podiumSlot: slot}
	r.d.matchOrder = append(r.d.matchOrder, m.ID)
	return nil
}

func (r *memoryMatches) GetByID(_ context.Context, id string) (*models.Match, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	stored, ok := r.d.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return cloneMatch(&stored.match), nil
}

func (r *memoryMatches) ListByTournament(_ context.Context, tournamentID string, filter ListMatchesFilter) ([]*models.Match, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	result := []*models.Match{}
	for _, id := range r.d.matchOrder {
		m := &r.d.matches[id].match
		if m.TournamentID != tournamentID {
			continue
		}
		if filter.Category != nil && m.Category != *filter.Category {
			continue
		}
		if filter.Round != nil && m.Round != *filter.Round {
			continue
		}
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		result = append(result, cloneMatch(m))
	}
	return result, nil
}

func (r *memoryMatches) Complete(_ context.Context, id string, result MatchResult) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	stored, err := r.scheduled(id)
	if err != nil {
		return err
	}
	score := result.Score
	completedAt := result.CompletedAt
	stored.match.Status = models.MatchStatusCompleted
	stored.match.Score = &score
	stored.match.Winner = cloneStrings(result.Winner)
	stored.match.CompletedAt = &completedAt
	if len(result.Aces) > 0 {
		stored.match.Aces = make(map[string]int, len(result.Aces))
		for k, v := range result.Aces {
			stored.match.Aces[k] = v
		}
	}
	return nil
}

func (r *memoryMatches) Cancel(_ context.Context, id string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	stored, err := r.scheduled(id)
	if err != nil {
		return err
	}
	stored.match.Status = models.MatchStatusCancelled
	stored.podiumSlot = nil
	return nil
}

func (r *memoryMatches) Count(_ context.Context, status *models.MatchStatus) (int, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	if status == nil {
		return len(r.d.matches), nil
	}
	n := 0
	for _, m := range r.d.matches {
		if m.match.Status == *status {
			n++
		}
	}
	return n, nil
}

// scheduled must be called with the lock held.
func (r *memoryMatches) scheduled(id string) (*memoryMatch, error) {
	stored, ok := r.d.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	if stored.match.Status != models.MatchStatusScheduled {
		return nil, ErrMatchNotScheduled
	}
	return stored, nil
}
