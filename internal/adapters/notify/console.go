// Package notify contiene el notifier de consola para --dry-run.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/domain"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/ports"
)

// Console implementa ports.Notifier escribiendo en un writer. Asigna
// handles sintéticos crecientes para que la retirada de avisos también se
// vea en el log de consola.
type Console struct {
	out io.Writer

	mu     sync.Mutex
	nextID int64
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout, nextID: 1}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w, nextID: 1}
}

// SendText imprime el aviso con timestamp y devuelve un handle sintético.
func (c *Console) SendText(_ context.Context, text string, buttons ...ports.LinkButton) (ports.MessageHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++

	fmt.Fprintf(c.out, "[%s] ── message #%d ──\n%s\n", timestamp(), id, indent(text))
	for _, b := range buttons {
		fmt.Fprintf(c.out, "    [%s] → %s\n", b.Label, b.URL)
	}
	return ports.MessageHandle{ID: id}, nil
}

// SendSticker imprime una marca de sticker.
func (c *Console) SendSticker(_ context.Context, kind ports.StickerKind) (ports.MessageHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++

	fmt.Fprintf(c.out, "[%s] ── sticker #%d (%s) ──\n", timestamp(), id, kind)
	return ports.MessageHandle{ID: id}, nil
}

// Delete marca un aviso anterior como retirado.
func (c *Console) Delete(_ context.Context, handle ports.MessageHandle) error {
	if handle.Zero() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "[%s] ── retracted #%d ──\n", timestamp(), handle.ID)
	return nil
}

// PrintScoreboard imprime el marcador acumulado en tabla. Se usa como
// resumen de cierre al parar el bot.
func (c *Console) PrintScoreboard(score domain.Score) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "\n[%s] session scoreboard\n", timestamp())

	table := tablewriter.NewWriter(c.out)
	table.Header("Wins", "Losses", "Streak", "Attempts", "Assertivity")
	table.Append(
		fmt.Sprintf("%d", score.Wins),
		fmt.Sprintf("%d", score.Losses),
		fmt.Sprintf("%d", score.ConsecutiveWins),
		fmt.Sprintf("%d", score.TotalAttempts),
		fmt.Sprintf("%.2f%%", score.AssertivityRate),
	)
	table.Render()
}

func timestamp() string {
	return time.Now().Format("15:04:05")
}

func indent(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "    " + line
	}
	return strings.Join(lines, "\n")
}
