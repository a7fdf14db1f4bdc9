package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-assessment/internal/domain"
)

// QuizLoader fetches quiz content from a backing store (bank directory, Postgres).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizRepository caches checked quizzes with a TTL in front of a loader.
// Concurrent misses for the same quiz share one load.
type QuizRepository struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	loads  singleflight.Group

	mu      sync.RWMutex
	entries map[string]quizEntry
	jitter  *rand.Rand
}

type quizEntry struct {
	quiz    domain.Quiz
	staleAt time.Time
}

func NewQuizRepository(loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		loader:  loader,
		ttl:     ttl,
		clock:   time.Now,
		entries: make(map[string]quizEntry),
		jitter:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := r.lookup(quizID); ok {
		return quiz, nil
	}
	v, err, _ := r.loads.Do(quizID, func() (interface{}, error) {
		// A concurrent load may have filled the entry while we waited.
		if quiz, ok := r.lookup(quizID); ok {
			return quiz, nil
		}
		return r.load(ctx, quizID)
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return v.(domain.Quiz), nil
}

// Invalidate drops a cached quiz so the next read reloads it.
func (r *QuizRepository) Invalidate(quizID string) {
	r.mu.Lock()
	delete(r.entries, quizID)
	r.mu.Unlock()
}

func (r *QuizRepository) lookup(quizID string) (domain.Quiz, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[quizID]
	if !ok || !r.clock().Before(e.staleAt) {
		return domain.Quiz{}, false
	}
	return e.quiz, true
}

func (r *QuizRepository) load(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := r.loader.LoadQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := quiz.CheckLoaded(quizID); err != nil {
		return domain.Quiz{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	lifetime := r.ttl
	if lifetime > 0 {
		// Up to 10% extra so entries loaded together do not expire together.
		lifetime += time.Duration(r.jitter.Int63n(int64(r.ttl)/10 + 1))
	}
	r.entries[quizID] = quizEntry{quiz: quiz, staleAt: r.clock().Add(lifetime)}
	return quiz, nil
}

// StaticQuizLoader serves quizzes from a fixed map. The CLI uses it for the
// built-in sample when no bank or database is configured.
type StaticQuizLoader struct {
	quizzes map[string]domain.Quiz
}

func NewStaticQuizLoader(quizzes map[string]domain.Quiz) *StaticQuizLoader {
	return &StaticQuizLoader{quizzes: quizzes}
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	quiz, ok := l.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}
