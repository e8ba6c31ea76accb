// Пакет archive — потоковая сборка zip-архива прямо в io.Writer,
// без временных файлов. Члены архива сжимаются deflate с максимальной степенью.
package archive

import (
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// Writer — zip-архив, записываемый в поток.
type Writer struct {
	zw *zip.Writer
}

// NewWriter создаёт архив поверх w.
func NewWriter(w io.Writer) *Writer {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})
	return &Writer{zw: zw}
}

// Add добавляет член архива с именем name и содержимым из r.
// Возвращает количество прочитанных из r байт. Ошибка чтения r после
// создания заголовка оставляет в потоке усечённый член с верной CRC,
// поэтому такой архив нельзя завершать через Close.
func (a *Writer) Add(name string, modified time.Time, r io.Reader) (int64, error) {
	hdr := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	}

	fw, err := a.zw.CreateHeader(hdr)
	if err != nil {
		return 0, fmt.Errorf("создание члена архива %s: %w", name, err)
	}

	n, err := io.Copy(fw, r)
	if err != nil {
		return n, fmt.Errorf("запись члена архива %s: %w", name, err)
	}
	return n, nil
}

// Flush сбрасывает буферизованные данные в нижележащий поток.
// Вызывается после каждого члена, чтобы клиент получал архив по частям.
func (a *Writer) Flush() error {
	return a.zw.Flush()
}

// Close записывает центральный каталог. Нижележащий поток не закрывается.
func (a *Writer) Close() error {
	if err := a.zw.Close(); err != nil {
		return fmt.Errorf("финализация архива: %w", err)
	}
	return nil
}
