package extraction_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storyfeed/internal/extraction"
)

func storyParagraphs(words int) string {
	var b strings.Builder
	count := 0
	for count < words {
		for i := 0; i < 50 && count < words; i++ {
			fmt.Fprintf(&b, "word%d ", count)
			count++
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

func TestFindPassword(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"same line", "Here you go!\nPassword: hunter2\nEnjoy.", "hunter2"},
		{"next line", "Password:\n\nshortCharacters\nhttps://example.com/post", "shortCharacters"},
		{"pw label", "pw: s3cret, have fun", "s3cret"},
		{"trailing punctuation", "pass: opensesame.", "opensesame"},
		{"skips urls", "password: https://example.com", ""},
		{"skips stop words", "password for the post is unknown", ""},
		{"absent", "just a story link", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := extraction.Input{Text: tc.text}
			if got := in.FindPassword(); got != tc.want {
				t.Fatalf("FindPassword(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

func TestFindPasswordPrefersExplicit(t *testing.T) {
	in := extraction.Input{Text: "password: fromBody", Password: "fromFlag"}
	if got := in.FindPassword(); got != "fromFlag" {
		t.Fatalf("expected explicit password to win, got %q", got)
	}
}

func TestFindURL(t *testing.T) {
	in := extraction.Input{Text: "Read it here: https://example.com/story?p=1 password: x"}
	if got := in.FindURL(); got != "https://example.com/story?p=1" {
		t.Fatalf("unexpected url %q", got)
	}

	in = extraction.Input{Text: "see link", URL: "https://direct.example.com/post"}
	if got := in.FindURL(); got != "https://direct.example.com/post" {
		t.Fatalf("expected explicit url to win, got %q", got)
	}
}

func TestCleanSubject(t *testing.T) {
	if got := extraction.CleanSubject("Re: Fwd is not stripped twice: The Long Road"); got != "Fwd is not stripped twice: The Long Road" {
		t.Fatalf("unexpected subject %q", got)
	}
	if got := extraction.CleanSubject("Fwd: Chapter 12"); got != "Chapter 12" {
		t.Fatalf("unexpected subject %q", got)
	}
}

func TestAuthorFromAddress(t *testing.T) {
	cases := []struct {
		from string
		want string
	}{
		{"Jane Writer <jane@example.com>", "Jane Writer"},
		{"jane.writer@example.com", "jane.writer"},
		{"", "Unknown Author"},
	}
	for _, tc := range cases {
		if got := extraction.AuthorFromAddress(tc.from); got != tc.want {
			t.Fatalf("AuthorFromAddress(%q) = %q, want %q", tc.from, got, tc.want)
		}
	}
}

func TestInlineStrategyPlainText(t *testing.T) {
	s := extraction.NewInlineStrategy(500, 100)
	in := extraction.Input{Text: storyParagraphs(300), Subject: "A Story", From: "Jane <jane@example.com>"}

	if !s.CanHandle(in) {
		t.Fatal("expected inline to handle a long body")
	}
	result, err := s.Extract(context.Background(), in)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(result.Text, "word0") {
		t.Fatalf("expected body text preserved, got %q", result.Text[:60])
	}
}

func TestInlineStrategyRejectsShortBody(t *testing.T) {
	s := extraction.NewInlineStrategy(10, 100)
	in := extraction.Input{Text: "too short to be a story but long enough to pass the gate"}

	if _, err := s.Extract(context.Background(), in); err == nil {
		t.Fatal("expected short body to be rejected")
	}
}

func TestInlineStrategyDeclinesTinySubmissions(t *testing.T) {
	s := extraction.NewInlineStrategy(500, 100)
	if s.CanHandle(extraction.Input{Text: "hi"}) {
		t.Fatal("expected tiny submission to be declined")
	}
}

func TestURLStrategyFetchesEntryContent(t *testing.T) {
	story := storyParagraphs(400)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><nav>menu</nav><article><div class="entry-content"><p>%s</p></div></article></body></html>`,
			strings.ReplaceAll(story, "\n\n", "</p><p>"))
	}))
	defer server.Close()

	s := extraction.NewURLStrategy(5*time.Second, 100)
	in := extraction.Input{Text: "Read here: " + server.URL}

	if !s.CanHandle(in) {
		t.Fatal("expected url strategy to handle a submission with a link")
	}
	result, err := s.Extract(context.Background(), in)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(result.Text, "word0") {
		t.Fatal("expected fetched story text")
	}
	if strings.Contains(result.Text, "menu") {
		t.Fatal("expected navigation chrome to be stripped")
	}
}

func TestURLStrategyUnlocksProtectedPost(t *testing.T) {
	story := storyParagraphs(400)
	var unlocked bool
	mux := http.NewServeMux()
	mux.HandleFunc("/post", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("wp-postpass"); err == nil {
			fmt.Fprintf(w, `<html><body><div class="entry-content"><p>%s</p></div></body></html>`,
				strings.ReplaceAll(story, "\n\n", "</p><p>"))
			return
		}
		fmt.Fprint(w, `<html><body><form class="post-password-form" action="/wp-login.php?action=postpass"><input name="post_password"></form></body></html>`)
	})
	mux.HandleFunc("/wp-login.php", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostFormValue("post_password") != "hunter2" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		unlocked = true
		http.SetCookie(w, &http.Cookie{Name: "wp-postpass", Value: "ok", Path: "/"})
		http.Redirect(w, r, "/post", http.StatusFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s := extraction.NewURLStrategy(5*time.Second, 100)
	in := extraction.Input{Text: "Password: hunter2\n" + server.URL + "/post"}

	result, err := s.Extract(context.Background(), in)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !unlocked {
		t.Fatal("expected password form submission")
	}
	if !strings.Contains(result.Text, "word0") {
		t.Fatal("expected unlocked story text")
	}
}

func TestURLStrategyRequiresPasswordForProtectedPost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><form class="post-password-form"></form></body></html>`)
	}))
	defer server.Close()

	s := extraction.NewURLStrategy(5*time.Second, 100)
	if _, err := s.Extract(context.Background(), extraction.Input{URL: server.URL}); err == nil {
		t.Fatal("expected error when no password is available")
	}
}

type fakeCompleter struct {
	response string
	err      error
}

func (f *fakeCompleter) CompleteJSON(context.Context, string, string) (string, error) {
	return f.response, f.err
}

func TestAgentStrategyRoutesInline(t *testing.T) {
	inline := extraction.NewInlineStrategy(10, 100)
	urls := extraction.NewURLStrategy(time.Second, 100)
	agent := extraction.NewAgentStrategy(&fakeCompleter{
		response: `{"strategy":"inline","url":"","password":"","confidence":"high","reasoning":"long prose"}`,
	}, inline, urls)

	in := extraction.Input{Text: storyParagraphs(200)}
	result, err := agent.Extract(context.Background(), in)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(result.Text, "word0") {
		t.Fatal("expected inline extraction through the agent")
	}
}

func TestAgentStrategyRoutesURLWithCredentials(t *testing.T) {
	story := storyParagraphs(400)
	var gotPassword string
	mux := http.NewServeMux()
	mux.HandleFunc("/post", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("wp-postpass"); err == nil {
			fmt.Fprintf(w, `<html><body><div class="entry-content"><p>%s</p></div></body></html>`,
				strings.ReplaceAll(story, "\n\n", "</p><p>"))
			return
		}
		fmt.Fprint(w, `<html><body><form class="post-password-form" action="/wp-login.php?action=postpass"></form></body></html>`)
	})
	mux.HandleFunc("/wp-login.php", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotPassword = r.PostFormValue("post_password")
		http.SetCookie(w, &http.Cookie{Name: "wp-postpass", Value: "ok", Path: "/"})
		http.Redirect(w, r, "/post", http.StatusFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	inline := extraction.NewInlineStrategy(500, 100)
	urls := extraction.NewURLStrategy(5*time.Second, 100)
	agent := extraction.NewAgentStrategy(&fakeCompleter{
		response: fmt.Sprintf(`{"strategy":"url","url":"%s/post","password":"hunter2","confidence":"high","reasoning":"only a link"}`, server.URL),
	}, inline, urls)

	result, err := agent.Extract(context.Background(), extraction.Input{Text: "link + password below"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if gotPassword != "hunter2" {
		t.Fatalf("expected agent-surfaced password, got %q", gotPassword)
	}
	if !strings.Contains(result.Text, "word0") {
		t.Fatal("expected fetched story text")
	}
}

func TestAgentStrategyRejectsLowConfidence(t *testing.T) {
	inline := extraction.NewInlineStrategy(10, 100)
	urls := extraction.NewURLStrategy(time.Second, 100)
	agent := extraction.NewAgentStrategy(&fakeCompleter{
		response: `{"strategy":"inline","url":"","password":"","confidence":"low","reasoning":"not sure"}`,
	}, inline, urls)

	_, err := agent.Extract(context.Background(), extraction.Input{Text: storyParagraphs(200)})
	if err == nil {
		t.Fatal("expected low-confidence decision to be rejected")
	}
	if !strings.Contains(err.Error(), "confidence") {
		t.Fatalf("expected confidence in error, got %v", err)
	}
}

func TestAgentStrategyRejectsMissingConfidence(t *testing.T) {
	agent := extraction.NewAgentStrategy(&fakeCompleter{
		response: `{"strategy":"inline"}`,
	}, extraction.NewInlineStrategy(0, 0), extraction.NewURLStrategy(0, 0))

	if _, err := agent.Extract(context.Background(), extraction.Input{Text: "body"}); err == nil {
		t.Fatal("expected missing confidence to be rejected")
	}
}

func TestAgentStrategyRejectsUnknownDecision(t *testing.T) {
	agent := extraction.NewAgentStrategy(&fakeCompleter{
		response: `{"strategy":"hallucinate","confidence":"high"}`,
	}, extraction.NewInlineStrategy(0, 0), extraction.NewURLStrategy(0, 0))

	if _, err := agent.Extract(context.Background(), extraction.Input{Text: "body"}); err == nil {
		t.Fatal("expected unknown strategy to fail")
	}
}

type stubStrategy struct {
	name    string
	handles bool
	result  *extraction.Result
	err     error
}

func (s *stubStrategy) Name() string                    { return s.name }
func (s *stubStrategy) CanHandle(extraction.Input) bool { return s.handles }
func (s *stubStrategy) Extract(context.Context, extraction.Input) (*extraction.Result, error) {
	return s.result, s.err
}

func TestExtractorFallsThroughChain(t *testing.T) {
	chain := extraction.NewExtractor(nil,
		&stubStrategy{name: "first", handles: false},
		&stubStrategy{name: "second", handles: true, err: errors.New("boom")},
		&stubStrategy{name: "third", handles: true, result: &extraction.Result{Text: "the story"}},
	)

	in := extraction.Input{Subject: "Re: The Tale", From: "Jane <jane@example.com>"}
	result, err := chain.Extract(context.Background(), in)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.Strategy != "third" {
		t.Fatalf("expected third strategy to win, got %q", result.Strategy)
	}
	if result.Title != "The Tale" {
		t.Fatalf("expected cleaned subject as title, got %q", result.Title)
	}
	if result.Author != "Jane" {
		t.Fatalf("expected author from address, got %q", result.Author)
	}
}

func TestExtractorReportsAllFailures(t *testing.T) {
	chain := extraction.NewExtractor(nil,
		&stubStrategy{name: "first", handles: true, err: errors.New("first failed")},
		&stubStrategy{name: "second", handles: true, err: errors.New("second failed")},
	)

	_, err := chain.Extract(context.Background(), extraction.Input{})
	if err == nil {
		t.Fatal("expected chain failure")
	}
	for _, fragment := range []string{"first failed", "second failed"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in error, got %v", fragment, err)
		}
	}
}

func TestExtractorNoStrategyHandles(t *testing.T) {
	chain := extraction.NewExtractor(nil, &stubStrategy{name: "only", handles: false})
	if _, err := chain.Extract(context.Background(), extraction.Input{}); err == nil {
		t.Fatal("expected error when nothing handles the submission")
	}
}
