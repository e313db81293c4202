package extraction

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"storyfeed/internal/textutil"
)

const fetchUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// contentSelectors are common blog/WordPress post content locations, in order
// of preference.
var contentSelectors = []string{
	"article .entry-content",
	".entry-content",
	".post-content",
	".article-content",
	"article .content",
	".chapter-content",
	"article",
	"main",
}

// unwantedSelector matches chrome and widgets stripped from fetched posts.
const unwantedSelector = "script, style, nav, .sharedaddy, .jp-relatedposts, .comments, footer"

// minFetchedChars is the smallest content-area text length considered a real
// post rather than a navigation shell.
const minFetchedChars = 500

// URLStrategy fetches the story from a link in the submission, unlocking
// WordPress password-protected posts when a password is provided.
type URLStrategy struct {
	timeout  time.Duration
	minWords int

	// newClient is swappable for tests.
	newClient func() (*http.Client, error)
}

// NewURLStrategy builds the URL strategy with the given fetch timeout.
func NewURLStrategy(timeout time.Duration, minWords int) *URLStrategy {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if minWords <= 0 {
		minWords = 100
	}
	s := &URLStrategy{timeout: timeout, minWords: minWords}
	s.newClient = func() (*http.Client, error) {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		return &http.Client{Timeout: s.timeout, Jar: jar}, nil
	}
	return s
}

func (s *URLStrategy) Name() string { return "url" }

// CanHandle requires a link somewhere in the submission.
func (s *URLStrategy) CanHandle(in Input) bool {
	return in.FindURL() != ""
}

func (s *URLStrategy) Extract(ctx context.Context, in Input) (*Result, error) {
	target := in.FindURL()
	if target == "" {
		return nil, errors.New("no url in submission")
	}

	client, err := s.newClient()
	if err != nil {
		return nil, err
	}

	doc, err := s.fetch(ctx, client, target)
	if err != nil {
		return nil, err
	}

	// WordPress gates protected posts behind a password form. Submit the
	// password and re-fetch through the now-authenticated session.
	if form := doc.Find("form.post-password-form"); form.Length() > 0 {
		password := in.FindPassword()
		if password == "" {
			return nil, errors.New("post is password protected and no password was provided")
		}
		doc, err = s.unlock(ctx, client, target, form, password)
		if err != nil {
			return nil, err
		}
	}

	contentHTML := selectContent(doc)
	if contentHTML == "" {
		return nil, errors.New("no content area found in fetched page")
	}

	text, err := htmlToText(contentHTML)
	if err != nil {
		return nil, fmt.Errorf("convert fetched content: %w", err)
	}
	text = textutil.NormalizeText(strings.TrimSpace(text))
	if words := textutil.CountWords(text); words < s.minWords {
		return nil, fmt.Errorf("fetched content too short: %d words, need %d", words, s.minWords)
	}

	return &Result{Text: text}, nil
}

func (s *URLStrategy) fetch(ctx context.Context, client *http.Client, target string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("fetch %s: http %d", target, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", target, err)
	}
	return doc, nil
}

func (s *URLStrategy) unlock(ctx context.Context, client *http.Client, target string, form *goquery.Selection, password string) (*goquery.Document, error) {
	action, _ := form.Attr("action")
	postURL, err := resolveFormAction(target, action)
	if err != nil {
		return nil, err
	}

	payload := url.Values{
		"post_password": {password},
		"Submit":        {"Enter"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postURL, strings.NewReader(payload.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build password request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit password: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("submit password: http %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse unlocked page: %w", err)
	}
	return doc, nil
}

func resolveFormAction(pageURL, action string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}
	if strings.TrimSpace(action) == "" {
		action = "/wp-login.php?action=postpass"
	}
	ref, err := url.Parse(action)
	if err != nil {
		return "", fmt.Errorf("parse form action: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

// selectContent finds the main post content area and returns its HTML with
// chrome elements removed. Falls back to the whole body when no selector
// yields substantial text.
func selectContent(doc *goquery.Document) string {
	for _, selector := range contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		sel.Find(unwantedSelector).Remove()
		if len(strings.TrimSpace(sel.Text())) <= minFetchedChars {
			continue
		}
		if html, err := goquery.OuterHtml(sel); err == nil {
			return html
		}
	}

	body := doc.Find("body").First()
	if body.Length() == 0 {
		return ""
	}
	body.Find(unwantedSelector).Remove()
	if html, err := goquery.OuterHtml(body); err == nil {
		return html
	}
	return ""
}
