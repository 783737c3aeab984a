package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// maxChunkRunes is the longest text the translate speech endpoint accepts
// in one request.
const maxChunkRunes = 100

// GoogleTTSConfig holds configuration for the Google Translate speech backend.
type GoogleTTSConfig struct {
	BaseURL string // default: "https://translate.google.com"
	Timeout time.Duration
}

// GoogleTTS synthesizes MP3 speech through Google Translate's public speech
// endpoint. Long text is sent in chunks and the MP3 frames are appended.
type GoogleTTS struct {
	cfg        GoogleTTSConfig
	httpClient *http.Client
}

// NewGoogleTTS creates a GoogleTTS with defaults applied.
func NewGoogleTTS(cfg GoogleTTSConfig) *GoogleTTS {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://translate.google.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &GoogleTTS{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (g *GoogleTTS) Name() string { return "google" }

// Synthesize fetches every chunk in order and concatenates the audio.
func (g *GoogleTTS) Synthesize(ctx context.Context, req Request) (*Result, error) {
	chunks := SplitText(req.Text, maxChunkRunes)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no speakable text")
	}
	lang := req.Lang
	if lang == "" {
		lang = "en"
	}

	var audio bytes.Buffer
	for i, chunk := range chunks {
		if err := g.fetchChunk(ctx, &audio, chunk, lang, i, len(chunks)); err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}

	return &Result{Audio: audio.Bytes(), Format: "mp3"}, nil
}

func (g *GoogleTTS) fetchChunk(ctx context.Context, dst io.Writer, text, lang string, idx, total int) error {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", lang)
	q.Set("q", text)
	q.Set("total", strconv.Itoa(total))
	q.Set("idx", strconv.Itoa(idx))
	q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(text)))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.BaseURL+"/translate_tts?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("User-Agent", "Mozilla/5.0 (compatible; slidecast)")
	httpReq.Header.Set("Referer", g.cfg.BaseURL+"/")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("tts failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return fmt.Errorf("read audio: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("empty audio response")
	}
	return nil
}

// SplitText breaks text into pieces of at most limit runes. It prefers
// punctuation boundaries, then whitespace, and only cuts inside a word when
// the word alone exceeds the limit. Adjacent short pieces are merged.
func SplitText(text string, limit int) []string {
	var pieces []string
	for _, sentence := range splitAtPunctuation(text) {
		if utf8.RuneCountInString(sentence) <= limit {
			pieces = append(pieces, sentence)
			continue
		}
		pieces = append(pieces, packWords(strings.Fields(sentence), limit)...)
	}
	return mergePieces(pieces, limit)
}

func splitAtPunctuation(text string) []string {
	var out []string
	var cur strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		cur.WriteRune(r)
		boundary := strings.ContainsRune(".!?;:,\n", r) && (i+1 == len(runes) || unicode.IsSpace(runes[i+1]))
		if r == '\n' {
			boundary = true
		}
		if boundary {
			if s := strings.TrimSpace(cur.String()); s != "" {
				out = append(out, s)
			}
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}

func packWords(words []string, limit int) []string {
	var out []string
	var cur []rune
	for _, w := range words {
		wr := []rune(w)
		for len(wr) > limit {
			if len(cur) > 0 {
				out = append(out, string(cur))
				cur = nil
			}
			out = append(out, string(wr[:limit]))
			wr = wr[limit:]
		}
		if len(wr) == 0 {
			continue
		}
		switch {
		case len(cur) == 0:
			cur = wr
		case len(cur)+1+len(wr) <= limit:
			cur = append(append(cur, ' '), wr...)
		default:
			out = append(out, string(cur))
			cur = wr
		}
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}

func mergePieces(pieces []string, limit int) []string {
	var out []string
	for _, p := range pieces {
		if n := len(out); n > 0 && utf8.RuneCountInString(out[n-1])+1+utf8.RuneCountInString(p) <= limit {
			out[n-1] = out[n-1] + " " + p
			continue
		}
		out = append(out, p)
	}
	return out
}
