package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/pevans/newsdocs/errs"
	"github.com/pevans/newsdocs/history"
	"github.com/pevans/newsdocs/library"
	"github.com/pevans/newsdocs/notify"
	"github.com/pevans/newsdocs/paper"
	"github.com/pevans/newsdocs/scraper"
)

// Result summarizes one retrieval of one site.
type Result struct {
	OK      bool
	New     int
	Skipped int
	Failed  int
	Papers  []paper.Record
}

// Retriever scrapes one site into its library.
type Retriever struct {
	site     scraper.Site
	lib      *library.Library
	notifier notify.Notifier // optional
	history  *history.Store  // optional
	logger   *slog.Logger
}

// NewRetriever creates a Retriever. notifier and store may be nil.
func NewRetriever(site scraper.Site, lib *library.Library, notifier notify.Notifier, store *history.Store, logger *slog.Logger) *Retriever {
	return &Retriever{
		site:     site,
		lib:      lib,
		notifier: notifier,
		history:  store,
		logger:   logger.With("site", site.Name()),
	}
}

// Retrieve lists the site, saves every article that is not in the library
// yet along with its attachment, and sends a summary when anything new was
// saved. Failures never escape: they are logged and reflected in the
// result.
func (r *Retriever) Retrieve(ctx context.Context) Result {
	r.logger.Info("scraper starting", "name_cn", r.site.NameCN())

	run := r.startRun()
	res := r.retrieve(ctx, run)
	r.finishRun(run, res)

	return res
}

func (r *Retriever) retrieve(ctx context.Context, run *history.Run) Result {
	var res Result

	entries, err := r.site.List(ctx)
	if err != nil {
		r.logger.Error("failed to fetch list", "error", err)
		return res
	}
	if len(entries) == 0 {
		r.logger.Error("no articles found, waiting for the next attempt")
		return res
	}

	index, err := r.lib.Index()
	if err != nil {
		r.logger.Error("failed to index library", "error", err)
		return res
	}

	attachments, _ := r.site.(scraper.AttachmentFetcher)

	for _, entry := range entries {
		if ctx.Err() != nil {
			r.logger.Warn("retrieval cancelled", "error", ctx.Err())
			return res
		}

		rec, err := paper.Normalize(entry)
		if err != nil {
			r.logger.Warn("skipping malformed entry", "href", entry.Href, "error", err)
			res.Failed++
			continue
		}

		if paper.IsNoise(rec) {
			r.logger.Info("skipping infographic", "category", rec.Category, "title", rec.Title)
			res.Skipped++
			continue
		}

		name := paper.FileName(rec)
		if index.Has(name) {
			res.Skipped++
		} else if r.saveArticle(ctx, run, rec, name) {
			index.Add(name)
			res.New++
			res.Papers = append(res.Papers, rec)
		} else {
			res.Failed++
		}

		if attachments != nil && attachments.HasAttachment(rec.Category) && rec.HasAttachment() {
			aname := paper.AttachmentFileName(rec)
			if !index.Has(aname) && r.saveAttachment(ctx, attachments, run, rec, aname) {
				index.Add(aname)
			}
		}
	}

	res.OK = true
	r.logger.Info("scraper finished", "new", res.New, "skipped", res.Skipped, "failed", res.Failed)
	r.notify(ctx, res)
	return res
}

func (r *Retriever) saveArticle(ctx context.Context, run *history.Run, rec paper.Record, name string) bool {
	logger := r.logger.With("category", rec.Category, "title", rec.Title)
	logger.Info("processing article", "publish_time", rec.PublishTime)

	body, err := r.site.Detail(ctx, rec.SourceURL)
	if errs.Is(err, errs.NoContentFound) {
		logger.Info("article has no body", "url", rec.SourceURL)
		return false
	}
	if err != nil {
		logger.Error("failed to fetch article", "url", rec.SourceURL, "kind", errs.KindOf(err), "error", err)
		return false
	}

	path, err := r.lib.Save(name, rec, r.site.ExtractParagraphs(body))
	if err != nil {
		logger.Error("failed to save article", "error", err)
		return false
	}

	r.recordPaper(run, rec, path)
	return true
}

func (r *Retriever) saveAttachment(ctx context.Context, af scraper.AttachmentFetcher, run *history.Run, rec paper.Record, name string) bool {
	logger := r.logger.With("category", rec.Category, "title", rec.Title)
	logger.Info("processing attachment", "url", rec.AttachmentURL)

	title, body, err := af.Attachment(ctx, rec.AttachmentURL)
	if errs.Is(err, errs.NoContentFound) {
		logger.Info("attachment has no body", "url", rec.AttachmentURL)
		return false
	}
	if err != nil {
		logger.Error("failed to fetch attachment", "url", rec.AttachmentURL, "error", err)
		return false
	}

	att := paper.Record{
		Category:    paper.AttachmentCategory(rec.Category),
		Title:       title,
		PublishTime: rec.PublishTime,
		SourceURL:   rec.AttachmentURL,
	}
	path, err := r.lib.Save(name, att, r.site.ExtractParagraphs(body))
	if err != nil {
		logger.Error("failed to save attachment", "error", err)
		return false
	}

	r.recordPaper(run, att, path)
	return true
}

func (r *Retriever) notify(ctx context.Context, res Result) {
	if r.notifier == nil || res.New == 0 {
		return
	}

	event := notify.Event{
		Title:   fmt.Sprintf("【%s】更新%d条", r.site.NameCN(), res.New),
		Message: paper.Digest(res.Papers),
	}
	if err := r.notifier.Notify(ctx, event); err != nil {
		r.logger.Warn("failed to send notification", "error", err)
	}
}

func (r *Retriever) startRun() *history.Run {
	if r.history == nil {
		return nil
	}

	run, err := r.history.StartRun(r.site.Name())
	if err != nil {
		r.logger.Warn("failed to record run", "error", err)
		return nil
	}
	return run
}

func (r *Retriever) finishRun(run *history.Run, res Result) {
	if run == nil {
		return
	}

	run.OK = res.OK
	run.New = res.New
	run.Skipped = res.Skipped
	run.Failed = res.Failed
	if err := r.history.FinishRun(run); err != nil {
		r.logger.Warn("failed to record run", "error", err)
	}
}

func (r *Retriever) recordPaper(run *history.Run, rec paper.Record, path string) {
	if run == nil {
		return
	}

	_, err := r.history.RecordPaper(run.RunID, history.Paper{
		Site:        r.site.Name(),
		Category:    rec.Category,
		Title:       rec.Title,
		PublishTime: rec.PublishTime,
		URL:         rec.SourceURL,
		FileName:    filepath.Base(path),
	})
	if err != nil {
		r.logger.Warn("failed to record paper", "run_id", run.RunID, "error", err)
	}
}
