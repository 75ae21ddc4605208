package usecase

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"StratLab/internal/domain/models"
	"StratLab/internal/repository"
	"StratLab/internal/services/analytics"
	"StratLab/internal/services/features"

	"github.com/stretchr/testify/require"
)

func newFactorModel() *FactorModel {
	loader := features.NewCleaner(repository.NewFileTableReader(), nil)
	return NewFactorModel(
		loader,
		analytics.NewParametricRisk(nil),
		analytics.NewFactorRegression(nil),
		FactorModelConfig{MarketSymbol: "SPY", ConfidenceLevel: 0.99},
		nil,
	)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// syntheticCSV builds n dated prices per symbol. SPY follows a fixed
// pattern and the other symbols move as a multiple of it plus noise.
func syntheticCSV(n int) string {
	var b strings.Builder
	b.WriteString("Date,Symbol,Px\n")
	px := map[string]float64{"SPY": 400, "AAA": 50, "BBB": 120}
	for i := 0; i < n; i++ {
		date := fmt.Sprintf("2025-02-%02d", i+1)
		m := 0.01 * math.Sin(float64(i))
		for _, sym := range []string{"SPY", "AAA", "BBB"} {
			if i > 0 {
				switch sym {
				case "SPY":
					px[sym] *= 1 + m
				case "AAA":
					px[sym] *= 1 + 1.5*m + 0.002*math.Cos(float64(3*i))
				case "BBB":
					px[sym] *= 1 + 0.5*m - 0.001*math.Sin(float64(5*i))
				}
			}
			fmt.Fprintf(&b, "%s,%s,%.6f\n", date, sym, px[sym])
		}
	}
	return b.String()
}

type memStore struct {
	mu      sync.Mutex
	tasks   map[string]models.Task
	saveErr error
	saves   int
}

func newMemStore() *memStore { return &memStore{tasks: make(map[string]models.Task)} }

func (s *memStore) Save(_ context.Context, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.tasks[t.ID] = *t
	return nil
}

func (s *memStore) Get(_ context.Context, id string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, models.ErrTaskNotFound
	}
	return &t, nil
}

type fakeQueue struct {
	err  error
	sent []models.AnalysisTaskPayload
}

func (q *fakeQueue) PublishMessage(_ context.Context, msgType string, payload interface{}) error {
	if q.err != nil {
		return q.err
	}
	if msgType != AnalysisTaskType {
		return fmt.Errorf("unexpected type %s", msgType)
	}
	q.sent = append(q.sent, payload.(models.AnalysisTaskPayload))
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.AnalysisCompletedEvent
	err    error
}

func (p *fakePublisher) PublishCompleted(_ context.Context, ev models.AnalysisCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }
