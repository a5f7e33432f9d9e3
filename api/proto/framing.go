package proto

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ValentinKolb/mocker/api/common"
)

// BlockSize is the read size of the block framing
const BlockSize = 255

// ReadMessage reads the raw bytes of one message from r using the given
// framing (common.FramingContentLength or common.FramingBlock).
// maxBytes bounds the message size, zero means no limit.
func ReadMessage(r io.Reader, framing string, maxBytes int) ([]byte, error) {
	switch framing {
	case common.FramingContentLength, "":
		return readContentLength(r, maxBytes)
	case common.FramingBlock:
		return readBlocks(r, maxBytes)
	default:
		return nil, common.NewParseError(fmt.Sprintf("unknown framing '%s'", framing), nil)
	}
}

func tooLarge(maxBytes int) error {
	return common.NewAPIErrorf(StatusRequestEntityTooLarge, "message exceeds %d bytes", maxBytes)
}

// readContentLength reads the head up to the first blank line and then exactly
// Content-Length body bytes. With maxBytes set at most maxBytes+1 bytes are
// taken from r, also when a head line never ends.
func readContentLength(r io.Reader, maxBytes int) ([]byte, error) {
	if maxBytes > 0 {
		r = io.LimitReader(r, int64(maxBytes)+1)
	}
	br := bufio.NewReader(r)
	var msg []byte
	contentLength := 0

	for {
		line, err := br.ReadString('\n')
		msg = append(msg, line...)
		if maxBytes > 0 && len(msg) > maxBytes {
			return nil, tooLarge(maxBytes)
		}

		trimmed := strings.TrimRight(line, "\r\n")
		if name, val, ok := strings.Cut(trimmed, ":"); ok && strings.EqualFold(name, HeaderContentLength) {
			n, convErr := strconv.Atoi(strings.TrimSpace(val))
			if convErr != nil || n < 0 {
				return nil, common.NewAPIErrorf(StatusBadRequest, "invalid Content-Length '%s'", strings.TrimSpace(val))
			}
			contentLength = n
		}

		if err != nil {
			if errors.Is(err, io.EOF) && len(msg) > 0 {
				// peer closed after the head, there is no body to read
				return msg, nil
			}
			return nil, common.NewIOError("cannot read message head", err)
		}
		if trimmed == "" && len(msg) > len(line) {
			break
		}
	}

	if contentLength == 0 {
		return msg, nil
	}
	if maxBytes > 0 && len(msg)+contentLength > maxBytes {
		return nil, tooLarge(maxBytes)
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(br, body); err != nil {
		return nil, common.NewIOError("cannot read message body", err)
	}
	return append(msg, body...), nil
}

// readBlocks reads blocks of BlockSize bytes until a short block arrives
func readBlocks(r io.Reader, maxBytes int) ([]byte, error) {
	var msg []byte
	block := make([]byte, BlockSize)
	for {
		n, err := r.Read(block)
		msg = append(msg, block[:n]...)
		if maxBytes > 0 && len(msg) > maxBytes {
			return nil, tooLarge(maxBytes)
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(msg) > 0 {
				return msg, nil
			}
			return nil, common.NewIOError("cannot read message", err)
		}
		if n < BlockSize {
			return msg, nil
		}
	}
}

// WriteMessage writes b to w. With content-length framing a message without
// body is terminated by a blank line so the reader knows where the head ends.
func WriteMessage(w io.Writer, b *Buffer, framing string) error {
	data := b.Bytes()
	if framing != common.FramingBlock && len(b.Body()) == 0 {
		data = append(data, '\n')
	}
	if _, err := w.Write(data); err != nil {
		return common.NewIOError("cannot write message", err)
	}
	return nil
}
