package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"riceinspector/internal/logger"
)

const maxPacketSize = 65507

var (
	jpegHeader = []byte{0xFF, 0xD8}
	jpegFooter = []byte{0xFF, 0xD9}
)

// frameAssembler rebuilds JPEG frames split across UDP packets. A packet
// starting with the JPEG SOI marker begins a new frame; one ending with the EOI
// marker completes it. Each sender has its own buffer.
type frameAssembler struct {
	buffers map[string]*bytes.Buffer
}

func newFrameAssembler() *frameAssembler {
	return &frameAssembler{buffers: make(map[string]*bytes.Buffer)}
}

// Push adds a packet from sender and returns the complete frame, if any.
func (a *frameAssembler) Push(sender string, data []byte) ([]byte, bool) {
	buf, ok := a.buffers[sender]
	if !ok {
		buf = new(bytes.Buffer)
		a.buffers[sender] = buf
	}

	if bytes.HasPrefix(data, jpegHeader) {
		buf.Reset()
	} else if buf.Len() == 0 {
		// continuation of a frame whose start was lost
		return nil, false
	}
	buf.Write(data)

	if !bytes.HasSuffix(data, jpegFooter) {
		return nil, false
	}
	frame := make([]byte, buf.Len())
	copy(frame, buf.Bytes())
	buf.Reset()
	return frame, true
}

// UDPSource receives JPEG frames from network cameras. Only the most recent
// complete frame is kept; slower consumers skip frames.
type UDPSource struct {
	conn    *net.UDPConn
	frames  chan []byte
	timeout time.Duration
	logger  *logger.Logger

	closeOnce sync.Once
}

// ListenUDP starts receiving on the given port. A timeout greater than zero
// ends the stream when no frame arrives within it.
func ListenUDP(port int, timeout time.Duration, logger *logger.Logger) (*UDPSource, error) {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on UDP port %d: %w", port, err)
	}

	s := &UDPSource{
		conn:    conn,
		frames:  make(chan []byte, 1),
		timeout: timeout,
		logger:  logger,
	}
	go s.receive()

	logger.Info("UDP camera receiver started on %s", conn.LocalAddr())
	return s, nil
}

// Addr returns the local listening address.
func (s *UDPSource) Addr() net.Addr {
	return s.conn.LocalAddr()
}

func (s *UDPSource) receive() {
	defer close(s.frames)

	assembler := newFrameAssembler()
	buffer := make([]byte, maxPacketSize)
	for {
		n, remoteAddr, err := s.conn.ReadFromUDP(buffer)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Error("Error reading UDP packet: %v", err)
			continue
		}

		frame, ok := assembler.Push(remoteAddr.IP.String(), buffer[:n])
		if !ok {
			continue
		}

		select {
		case s.frames <- frame:
		default:
			// drop the stale frame in favour of the new one
			select {
			case <-s.frames:
			default:
			}
			s.frames <- frame
		}
	}
}

// NextFrame waits for the next complete frame and decodes it into dst.
// Frames that fail to decode are skipped.
func (s *UDPSource) NextFrame(ctx context.Context, dst *gocv.Mat) error {
	var timeout <-chan time.Time
	if s.timeout > 0 {
		timer := time.NewTimer(s.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return fmt.Errorf("no frame for %v: %w", s.timeout, ErrEndOfStream)
		case data, ok := <-s.frames:
			if !ok {
				return ErrEndOfStream
			}
			mat, err := gocv.IMDecode(data, gocv.IMReadColor)
			if err != nil {
				s.logger.Warning("Skipping undecodable frame (%d bytes): %v", len(data), err)
				continue
			}
			if mat.Empty() {
				mat.Close()
				s.logger.Warning("Skipping undecodable frame (%d bytes)", len(data))
				continue
			}
			mat.CopyTo(dst)
			mat.Close()
			return nil
		}
	}
}

// Close stops the receiver.
func (s *UDPSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.conn.Close()
	})
	return err
}
