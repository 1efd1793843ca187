package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/good-yellow-bee/rostergrid/internal/web/session"
)

func TestLayout_Toasts(t *testing.T) {
	body := templ.Raw(`<p id="body">content</p>`)
	flashes := []session.Flash{
		{Kind: session.FlashSuccess, Title: "Success", Message: "Roster saved successfully!"},
		{Kind: session.FlashError, Message: "Please enter a role name"},
	}

	var buf bytes.Buffer
	ctx := templ.WithChildren(context.Background(), body)
	if err := Layout("Picnic", flashes).Render(ctx, &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`<!doctype html>`,
		`<title>Picnic</title>`,
		`<div class="toast toast-success" role="status"><strong>Success</strong> Roster saved successfully!</div>`,
		`<div class="toast toast-error" role="status">Please enter a role name</div>`,
		`<main><div class="toasts">`,
		`<p id="body">content</p></main>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s\n%s", want, out)
		}
	}
}

func TestLayout_NoToasts(t *testing.T) {
	var buf bytes.Buffer
	if err := Layout("Picnic", nil).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(buf.String(), "toasts") {
		t.Error("toast container rendered without flashes")
	}
}
