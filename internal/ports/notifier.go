package ports

import "context"

// MessageHandle identifica un mensaje ya entregado para poder retirarlo.
// El handle cero significa "no entregado" y nunca se retira.
type MessageHandle struct {
	ID int64
}

// Zero indica si el handle no referencia ningún mensaje.
func (h MessageHandle) Zero() bool {
	return h.ID == 0
}

// LinkButton es un botón con URL que acompaña a un aviso.
type LinkButton struct {
	Label string
	URL   string
}

// StickerKind es el sticker que cierra un ciclo.
type StickerKind int

const (
	StickerWin  StickerKind = iota // ciclo ganado (green)
	StickerLoss                    // ciclo perdido (red)
)

func (k StickerKind) String() string {
	if k == StickerWin {
		return "win"
	}
	return "loss"
}

// Notifier entrega los avisos al usuario. Cada envío devuelve un handle que
// permite retirar el mensaje después; la retirada es best-effort.
type Notifier interface {
	// SendText envía un aviso de texto, con botones de enlace opcionales.
	SendText(ctx context.Context, text string, buttons ...LinkButton) (MessageHandle, error)
	// SendSticker envía el sticker de cierre de ciclo.
	SendSticker(ctx context.Context, kind StickerKind) (MessageHandle, error)
	// Delete retira un mensaje previamente enviado.
	Delete(ctx context.Context, handle MessageHandle) error
}
