package card

import (
	"encoding/json"
	"testing"

	"github.com/gbasileGP/chess-card/internal/model"
)

func texts(root *Node) []string {
	var out []string
	root.Walk(func(n *Node) {
		if n.Kind == KindText {
			out = append(out, n.Text)
		}
	})
	return out
}

func images(root *Node) []*Node {
	var out []*Node
	root.Walk(func(n *Node) {
		if n.Kind == KindImage {
			out = append(out, n)
		}
	})
	return out
}

func TestLayout_Texts(t *testing.T) {
	stats := &model.PlayerStats{}
	if err := json.Unmarshal([]byte(`{"chess_rapid":{"last":{"rating":0}},"chess_bullet":{"last":{"rating":2950}}}`), stats); err != nil {
		t.Fatal(err)
	}

	root := Layout(NewProfile("MagnusCarlsen", &model.PlayerProfile{}, stats))

	want := []string{"MagnusCarlsen", "Rapid: 0", "Blitz: N/A", "Bullet: 2950"}
	got := texts(root)
	if len(got) != len(want) {
		t.Fatalf("texts = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("text[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLayout_AvatarFallback(t *testing.T) {
	root := Layout(NewProfile("nobody", &model.PlayerProfile{}, &model.PlayerStats{}))

	imgs := images(root)
	if len(imgs) != 1 {
		t.Fatalf("expected one image node, got %d", len(imgs))
	}
	if imgs[0].Src != model.DefaultAvatarURL {
		t.Errorf("avatar src = %q, want default", imgs[0].Src)
	}
	if imgs[0].Style.Radius*2 < imgs[0].Style.Width {
		t.Error("avatar should be clipped to a circle")
	}
}

func TestLayout_NativeCanvas(t *testing.T) {
	root := Layout(Profile{Username: "x", AvatarURL: "https://example.com/a.png"})
	if root.Style.Width != NativeWidth || root.Style.Height != NativeHeight {
		t.Errorf("root = %vx%v, want %dx%d", root.Style.Width, root.Style.Height, NativeWidth, NativeHeight)
	}
	if root.Kind != KindBox || root.Style.Background == nil || root.Style.BorderWidth == 0 {
		t.Error("root should be a bordered box with a background")
	}
}
