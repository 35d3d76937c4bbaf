package input

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/nxadm/tail"
	"github.com/rs/zerolog/log"

	"github.com/xoelrdgz/polystream/internal/ports"
)

// MaxLineLength caps a single followed line; longer lines are cut.
const MaxLineLength = 64 * 1024

var _ ports.LineReader = (*FileTailer)(nil)

// FileTailer follows a file and emits its lines, skipping blank ones.
type FileTailer struct {
	filepath      string
	tail          *tail.Tail
	bufferSize    int
	fromBeginning bool
	mu            sync.Mutex
	running       bool
	stopChan      chan struct{}
}

func NewFileTailer(filepath string, bufferSize int) *FileTailer {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	return &FileTailer{
		filepath:   filepath,
		bufferSize: bufferSize,
		stopChan:   make(chan struct{}),
	}
}

// SetFromBeginning makes the next Start read the file from offset 0
// instead of its end.
func (t *FileTailer) SetFromBeginning(fromBeginning bool) {
	t.fromBeginning = fromBeginning
}

func (t *FileTailer) Start(ctx context.Context) (<-chan string, <-chan error) {
	lineChan := make(chan string, t.bufferSize)
	errChan := make(chan error, 10)

	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		close(lineChan)
		close(errChan)
		return lineChan, errChan
	}
	t.running = true
	t.stopChan = make(chan struct{})
	stop := t.stopChan
	t.mu.Unlock()

	go func() {
		defer close(lineChan)
		defer close(errChan)

		whence := 2
		if t.fromBeginning {
			whence = 0
		}

		tl, err := tail.TailFile(t.filepath, tail.Config{
			Follow:    true,
			ReOpen:    true,
			MustExist: false,
			Poll:      false,
			Location:  &tail.SeekInfo{Offset: 0, Whence: whence},
			Logger:    tail.DiscardingLogger,
		})
		if err != nil {
			log.Error().Err(err).Str("file", t.filepath).Msg("Failed to tail file")
			errChan <- err
			return
		}
		t.mu.Lock()
		select {
		case <-stop:
			t.mu.Unlock()
			_ = tl.Stop()
			tl.Cleanup()
			return
		default:
		}
		t.tail = tl
		t.mu.Unlock()

		log.Info().Str("file", t.filepath).Msg("Started tailing file")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("Context cancelled, stopping tailer")
				return
			case <-stop:
				log.Info().Msg("Stop signal received, stopping tailer")
				return
			case line, ok := <-tl.Lines:
				if !ok {
					log.Info().Msg("Tail channel closed")
					return
				}
				if line.Err != nil {
					log.Warn().Err(line.Err).Msg("Error reading line")
					select {
					case errChan <- line.Err:
					default:
					}
					continue
				}

				text := strings.TrimRight(line.Text, "\r")
				if strings.TrimSpace(text) == "" {
					continue
				}
				if len(text) > MaxLineLength {
					log.Warn().
						Int("original_size", len(text)).
						Int("truncated_to", MaxLineLength).
						Msg("Truncated oversized line")
					text = truncateLine(text, MaxLineLength)
				}

				select {
				case lineChan <- text:
				case <-ctx.Done():
					return
				case <-stop:
					return
				}
			}
		}
	}()

	return lineChan, errChan
}

// truncateLine cuts s to at most limit bytes without splitting a rune.
func truncateLine(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func (t *FileTailer) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return nil
	}

	close(t.stopChan)
	t.running = false

	if t.tail != nil {
		err := t.tail.Stop()
		t.tail.Cleanup()
		return err
	}
	return nil
}

func (t *FileTailer) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}
