package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dgallion1/docvoice/internal/parser"
	"github.com/dgallion1/docvoice/internal/pipeline"
)

var errTooLarge = errors.New("document too large")

func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	doc := msg.Document

	filename, ok := documentFilename(doc)
	if !ok {
		b.reply(chatID, unsupportedFormat)
		return
	}
	if b.maxDownload > 0 && int64(doc.FileSize) > b.maxDownload {
		b.reply(chatID, tooLargeText(b.maxDownload))
		return
	}

	log := b.log.With("chat_id", chatID, "user_id", userKey(msg.From), "filename", filename)
	b.reply(chatID, processingText)

	body, err := b.download(ctx, doc.FileID)
	if err != nil {
		log.Error("download document", "error", err)
		b.reply(chatID, errorMessage)
		return
	}
	defer body.Close()

	if wantsExtract(msg.Caption) {
		if err := b.sendExtracted(chatID, filename, body); err != nil {
			log.Error("extract document", "error", err)
			b.reply(chatID, errorMessage)
		}
		return
	}

	req := pipeline.Request{
		UserID:   userKey(msg.From),
		Filename: filename,
		Body:     body,
	}
	if _, err := b.converter.Convert(ctx, req, b.deliverTo(chatID)); err != nil {
		log.Error("convert document", "error", err)
		b.reply(chatID, errorMessage)
	}
}

// deliverTo sends an outcome to a chat while its audio files still exist.
func (b *Bot) deliverTo(chatID int64) pipeline.Deliver {
	return func(ctx context.Context, out pipeline.Outcome) error {
		switch out.Kind {
		case pipeline.OutcomeDone:
			if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatUploadVoice)); err != nil {
				b.log.Debug("chat action", "error", err)
			}
			for _, seg := range out.Segments {
				audio := tgbotapi.NewAudio(chatID, tgbotapi.FilePath(seg.Path))
				audio.Title = audioTitle(seg.Index)
				audio.Performer = backendName(out.Backend)
				if _, err := b.api.Send(audio); err != nil {
					return fmt.Errorf("send audio part %d: %w", seg.Index, err)
				}
			}
			b.reply(chatID, doneText(out.Backend, out.Count))
		case pipeline.OutcomeQuotaExceeded:
			b.reply(chatID, quotaText(out.Backend, out.Fallback))
		case pipeline.OutcomeEmptyText:
			b.reply(chatID, emptyTextMessage)
		default:
			b.reply(chatID, failedMessage)
		}
		return nil
	}
}

// sendExtracted spools the document, extracts it and replies with the text
// split to fit Telegram's message limit.
func (b *Bot) sendExtracted(chatID int64, filename string, body io.Reader) error {
	f, err := os.CreateTemp(b.workDir, "docvoice-extract-*"+strings.ToLower(filepath.Ext(filename)))
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return fmt.Errorf("spool document: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("spool document: %w", err)
	}

	text, err := parser.Extract(f.Name())
	if err != nil {
		b.log.Warn("extraction failed", "chat_id", chatID, "error", err)
	}
	if err != nil || strings.TrimSpace(text) == "" {
		b.reply(chatID, emptyTextMessage)
		return nil
	}

	for _, piece := range splitMessage(text, telegramTextLimit) {
		b.reply(chatID, piece)
	}
	return nil
}

// splitMessage cuts text into pieces of at most limit UTF-16 code units,
// never splitting a surrogate pair. Blank pieces are dropped.
func splitMessage(text string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	var pieces []string
	start, units := 0, 0
	for i, r := range text {
		n := utf16.RuneLen(r)
		if n < 1 {
			n = 1
		}
		if units+n > limit {
			pieces = appendPiece(pieces, text[start:i])
			start, units = i, 0
		}
		units += n
	}
	return appendPiece(pieces, text[start:])
}

func appendPiece(pieces []string, piece string) []string {
	if strings.TrimSpace(piece) == "" {
		return pieces
	}
	return append(pieces, piece)
}

func (b *Bot) download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		// The file URL embeds the bot token; keep it out of logs.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("get file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("get file: status %d", resp.StatusCode)
	}
	if b.maxDownload > 0 && resp.ContentLength > b.maxDownload {
		resp.Body.Close()
		return nil, errTooLarge
	}
	if b.maxDownload <= 0 {
		return resp.Body, nil
	}
	return &limitedBody{r: io.LimitReader(resp.Body, b.maxDownload+1), c: resp.Body, left: b.maxDownload}, nil
}

// limitedBody fails reads past the size limit instead of truncating.
type limitedBody struct {
	r    io.Reader
	c    io.Closer
	left int64
}

func (l *limitedBody) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.left -= int64(n)
	if l.left < 0 {
		return n, errTooLarge
	}
	return n, err
}

func (l *limitedBody) Close() error { return l.c.Close() }

// documentFilename names the upload with an extension a parser understands,
// falling back to the MIME type when the original name has none.
func documentFilename(doc *tgbotapi.Document) (string, bool) {
	if doc == nil {
		return "", false
	}
	if parser.IsSupported(doc.FileName) {
		return doc.FileName, true
	}
	if ext, ok := parser.ExtensionForMIME(doc.MimeType); ok {
		base := strings.TrimSuffix(doc.FileName, filepath.Ext(doc.FileName))
		if base == "" {
			base = "document"
		}
		return base + ext, true
	}
	return "", false
}

func wantsExtract(caption string) bool {
	c := strings.ToLower(strings.TrimSpace(caption))
	return c == "/extract" || c == "extract"
}
