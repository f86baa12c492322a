package gplaces

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/gosom/scrapemate"
	"github.com/mcnijman/go-emailaddress"

	"github.com/canleads/places-scraper/exiter"
)

type EmailExtractJobOptions func(*EmailExtractJob)

// EmailExtractJob visits a business website and collects contact emails
// for the record. It is best-effort: any failure still emits the entry,
// just without emails.
type EmailExtractJob struct {
	scrapemate.Job

	Entry       *Entry
	ExitMonitor exiter.Exiter
}

func NewEmailJob(parentID string, entry *Entry, opts ...EmailExtractJobOptions) *EmailExtractJob {
	job := EmailExtractJob{
		Job: scrapemate.Job{
			ID:         uuid.New().String(),
			ParentID:   parentID,
			Method:     "GET",
			URL:        entry.WebSite,
			MaxRetries: 0,
			Priority:   scrapemate.PriorityHigh,
		},
		Entry: entry,
	}

	for _, opt := range opts {
		opt(&job)
	}

	return &job
}

func WithEmailJobExitMonitor(e exiter.Exiter) EmailExtractJobOptions {
	return func(j *EmailExtractJob) {
		j.ExitMonitor = e
	}
}

func (j *EmailExtractJob) Process(_ context.Context, resp *scrapemate.Response) (any, []scrapemate.IJob, error) {
	defer func() {
		resp.Document = nil
		resp.Body = nil
	}()

	defer func() {
		if j.ExitMonitor != nil {
			j.ExitMonitor.IncrPlacesCompleted(1)
		}
	}()

	if resp.Error != nil {
		return j.Entry, nil, nil
	}

	var emails []string

	if doc, ok := resp.Document.(*goquery.Document); ok {
		emails = mailtoEmails(doc)
	}

	if len(emails) == 0 {
		emails = bodyEmails(resp.Body)
	}

	j.Entry.Emails = filterEmails(emails)

	return j.Entry, nil, nil
}

// ProcessOnFetchError lets a dead website still produce the record.
func (j *EmailExtractJob) ProcessOnFetchError() bool {
	return true
}

func mailtoEmails(doc *goquery.Document) []string {
	seen := map[string]bool{}

	var emails []string

	doc.Find("a[href^='mailto:']").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}

		value := strings.TrimPrefix(href, "mailto:")

		email, err := emailaddress.Parse(strings.TrimSpace(value))
		if err != nil {
			return
		}

		if !seen[email.String()] {
			emails = append(emails, email.String())
			seen[email.String()] = true
		}
	})

	return emails
}

func bodyEmails(body []byte) []string {
	seen := map[string]bool{}

	var emails []string

	for _, addr := range emailaddress.Find(body, false) {
		if !seen[addr.String()] {
			emails = append(emails, addr.String())
			seen[addr.String()] = true
		}
	}

	return emails
}

func filterEmails(emails []string) []string {
	var ans []string

	for _, email := range emails {
		if KeepEmail(email) {
			ans = append(ans, email)
		}
	}

	return ans
}

// KeepEmail rejects addresses that are really asset paths or test
// domains, the usual false positives of regex extraction.
func KeepEmail(email string) bool {
	lower := strings.ToLower(email)

	for _, ext := range []string{".png", ".webp", ".jpg", ".jpeg", ".gif", ".svg"} {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}

	if _, domain, ok := strings.Cut(lower, "@"); ok {
		for _, suffix := range []string{".local", ".test", ".example", ".invalid"} {
			if strings.HasSuffix(domain, suffix) {
				return false
			}
		}
	}

	return true
}

// isCrawlableWebsite filters out sites that never carry a business's own
// contact details (aggregator profiles) and anything that is not http(s).
func isCrawlableWebsite(site string) bool {
	if site == "" {
		return false
	}

	u, err := url.Parse(site)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	for _, skip := range []string{"facebook.com", "instagram.com", "business.site", "yelp.com"} {
		if host == skip || strings.HasSuffix(host, "."+skip) {
			return false
		}
	}

	return true
}
