package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gbasileGP/chess-card/internal/card"
	"github.com/gbasileGP/chess-card/internal/model"
	"github.com/sirupsen/logrus"
)

type stubPlayers struct {
	profile    *model.PlayerProfile
	stats      *model.PlayerStats
	profileErr error
	statsErr   error

	profileCalls atomic.Int32
	statsCalls   atomic.Int32

	// barrier, when set, makes each fetch wait until both have started.
	barrier *sync.WaitGroup
}

func (s *stubPlayers) GetProfile(ctx context.Context, username string) (*model.PlayerProfile, error) {
	s.profileCalls.Add(1)
	s.wait()
	return s.profile, s.profileErr
}

func (s *stubPlayers) GetStats(ctx context.Context, username string) (*model.PlayerStats, error) {
	s.statsCalls.Add(1)
	s.wait()
	return s.stats, s.statsErr
}

func (s *stubPlayers) wait() {
	if s.barrier != nil {
		s.barrier.Done()
		s.barrier.Wait()
	}
}

type stubRasterizer struct {
	root *card.Node
	size card.Size
	err  error
}

func (s *stubRasterizer) Render(ctx context.Context, root *card.Node, size card.Size) ([]byte, error) {
	s.root, s.size = root, size
	if s.err != nil {
		return nil, s.err
	}
	return []byte("png"), nil
}

type stubTally struct {
	users []string
	err   error
}

func (s *stubTally) IncrRenderCount(ctx context.Context, username string) (int64, error) {
	s.users = append(s.users, username)
	return int64(len(s.users)), s.err
}

type stubArchive struct {
	keys []string
	err  error
}

func (s *stubArchive) PutCard(ctx context.Context, username string, width, height int, png []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	key := fmt.Sprintf("%s/%dx%d", username, width, height)
	s.keys = append(s.keys, key)
	return key, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func intPtr(v int) *int { return &v }

func foundPlayer() *stubPlayers {
	return &stubPlayers{
		profile: &model.PlayerProfile{},
		stats: &model.PlayerStats{
			Rapid: &model.GameModeStats{Last: &model.RatingRecord{Rating: intPtr(0)}},
		},
	}
}

func cardTexts(root *card.Node) []string {
	var out []string
	root.Walk(func(n *card.Node) {
		if n.Kind == card.KindText {
			out = append(out, n.Text)
		}
	})
	return out
}

func TestRenderCard_Success(t *testing.T) {
	players := foundPlayer()
	raster := &stubRasterizer{}
	cs := NewCardService(players, raster, quietLogger())

	size := card.Size{Width: 240, Height: 100}
	png, err := cs.RenderCard(context.Background(), "hikaru", size)
	if err != nil {
		t.Fatalf("RenderCard() error = %v", err)
	}
	if string(png) != "png" {
		t.Errorf("png = %q", png)
	}
	if raster.size != size {
		t.Errorf("rasterizer size = %+v, want %+v", raster.size, size)
	}

	want := []string{"hikaru", "Rapid: 0", "Blitz: N/A", "Bullet: N/A"}
	got := cardTexts(raster.root)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("card texts = %q, want %q", got, want)
	}

	var avatar string
	raster.root.Walk(func(n *card.Node) {
		if n.Kind == card.KindImage {
			avatar = n.Src
		}
	})
	if avatar != model.DefaultAvatarURL {
		t.Errorf("avatar = %q, want default", avatar)
	}
}

func TestRenderCard_FetchesConcurrently(t *testing.T) {
	players := foundPlayer()
	players.barrier = &sync.WaitGroup{}
	players.barrier.Add(2)
	cs := NewCardService(players, &stubRasterizer{}, quietLogger())

	done := make(chan error, 1)
	go func() {
		_, err := cs.RenderCard(context.Background(), "hikaru", card.NativeSize)
		done <- err
	}()

	// Sequential fetches would deadlock on the barrier.
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RenderCard() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("profile and stats were not fetched concurrently")
	}
}

func TestRenderCard_EmptyUsername(t *testing.T) {
	players := foundPlayer()
	cs := NewCardService(players, &stubRasterizer{}, quietLogger())

	for _, username := range []string{"", "   "} {
		_, err := cs.RenderCard(context.Background(), username, card.NativeSize)
		if !errors.Is(err, ErrUsernameRequired) {
			t.Errorf("RenderCard(%q) error = %v, want ErrUsernameRequired", username, err)
		}
	}
	if players.profileCalls.Load() != 0 || players.statsCalls.Load() != 0 {
		t.Errorf("expected no upstream calls, got profile=%d stats=%d", players.profileCalls.Load(), players.statsCalls.Load())
	}
}

func TestRenderCard_FetchErrors(t *testing.T) {
	notFound := fmt.Errorf("chessclient: %w", model.ErrPlayerNotFound)
	network := errors.New("connection reset by peer")

	tests := []struct {
		name         string
		profileErr   error
		statsErr     error
		wantNotFound bool
	}{
		{"profile not found", notFound, nil, true},
		{"stats not found", nil, notFound, true},
		{"both not found", notFound, notFound, true},
		{"profile network failure", network, nil, false},
		{"network failure wins over not found", notFound, network, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			players := foundPlayer()
			players.profileErr, players.statsErr = tt.profileErr, tt.statsErr
			raster := &stubRasterizer{}
			cs := NewCardService(players, raster, quietLogger())

			png, err := cs.RenderCard(context.Background(), "ghost", card.NativeSize)
			if err == nil {
				t.Fatal("expected error")
			}
			if png != nil {
				t.Error("expected no image on error")
			}
			if got := errors.Is(err, model.ErrPlayerNotFound); got != tt.wantNotFound {
				t.Errorf("errors.Is(err, ErrPlayerNotFound) = %v, want %v (err = %v)", got, tt.wantNotFound, err)
			}
			if players.profileCalls.Load() != 1 || players.statsCalls.Load() != 1 {
				t.Error("both fetches should complete before the result is inspected")
			}
			if raster.root != nil {
				t.Error("rasterizer must not run when the fetch failed")
			}
		})
	}
}

func TestRenderCard_RenderError(t *testing.T) {
	tally := &stubTally{}
	archive := &stubArchive{}
	cs := NewCardService(foundPlayer(), &stubRasterizer{err: errors.New("bad tree")}, quietLogger(),
		WithTally(tally), WithArchive(archive))

	png, err := cs.RenderCard(context.Background(), "hikaru", card.NativeSize)
	if err == nil || errors.Is(err, model.ErrPlayerNotFound) {
		t.Fatalf("RenderCard() error = %v, want render error", err)
	}
	if png != nil {
		t.Error("expected no image on render error")
	}
	if len(tally.users) != 0 || len(archive.keys) != 0 {
		t.Error("failed renders must not be recorded")
	}
}

func TestRenderCard_RecordsRender(t *testing.T) {
	tally := &stubTally{}
	archive := &stubArchive{}
	cs := NewCardService(foundPlayer(), &stubRasterizer{}, quietLogger(), WithTally(tally), WithArchive(archive))

	if _, err := cs.RenderCard(context.Background(), "hikaru", card.Size{Width: 1200, Height: 500}); err != nil {
		t.Fatal(err)
	}
	if len(tally.users) != 1 || tally.users[0] != "hikaru" {
		t.Errorf("tally = %q", tally.users)
	}
	if len(archive.keys) != 1 || archive.keys[0] != "hikaru/1200x500" {
		t.Errorf("archive = %q", archive.keys)
	}
}

func TestRenderCard_RecordFailuresAreIgnored(t *testing.T) {
	cs := NewCardService(foundPlayer(), &stubRasterizer{}, quietLogger(),
		WithTally(&stubTally{err: errors.New("redis down")}),
		WithArchive(&stubArchive{err: errors.New("minio down")}))

	png, err := cs.RenderCard(context.Background(), "hikaru", card.NativeSize)
	if err != nil {
		t.Fatalf("RenderCard() error = %v", err)
	}
	if string(png) != "png" {
		t.Errorf("png = %q", png)
	}
}
