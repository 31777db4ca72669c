package player

import (
	"errors"
	"fmt"
	"io"

	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/ports"
)

// cycle produces at most one frame or one terminal signal. It is the
// scheduler task: returning false stops the schedule.
func (p *Player) cycle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := &p.sess
	if s.decoder == nil || s.demuxer == nil || s.frame == nil || s.converter == nil {
		return false
	}

	for {
		err := s.decoder.ReceivePicture(s.picture)
		switch {
		case err == nil:
			return p.deliver(s)
		case errors.Is(err, io.EOF):
			p.finish(media.SignalEndOfStream, nil)
			return false
		case !errors.Is(err, ports.ErrAgain):
			p.finish(media.SignalError, err)
			return false
		case s.draining:
			// Drained decoders that still ask for input have nothing left.
			p.finish(media.SignalEndOfStream, nil)
			return false
		}

		if !s.pending {
			if err := p.readVideoPacket(s); err != nil {
				if p.opts.DrainAtEnd {
					s.draining = true
					if err := s.decoder.SendPacket(nil); err != nil && !errors.Is(err, io.EOF) {
						p.log.Debug("Drain refused: %v", err)
						p.finish(media.SignalEndOfStream, err)
						return false
					}
					continue
				}
				p.finish(media.SignalEndOfStream, err)
				return false
			}
			s.pending = true
		}

		err = s.decoder.SendPacket(s.packet)
		if errors.Is(err, ports.ErrAgain) {
			continue
		}
		s.pending = false
		if err != nil {
			p.finish(media.SignalError, err)
			return false
		}
		s.lastDTS = s.packet.DTS
	}
}

// readVideoPacket reads until a unit of the video stream arrives. Units of
// other streams are dropped.
func (p *Player) readVideoPacket(s *session) error {
	for {
		s.packet.Reset()
		if err := s.demuxer.ReadPacket(s.packet); err != nil {
			return err
		}
		if s.packet.StreamIndex == s.videoIndex {
			return nil
		}
	}
}

// deliver converts the received picture, stamps it and hands it to the sink.
func (p *Player) deliver(s *session) bool {
	if err := p.followPicture(s); err != nil {
		p.finish(media.SignalError, fmt.Errorf("convert: %w", err))
		return false
	}
	if err := s.converter.Convert(s.picture, s.frame.Data, s.frame.Stride()); err != nil {
		p.finish(media.SignalError, fmt.Errorf("convert: %w", err))
		return false
	}

	pts := s.picture.PTS
	if pts == media.NoPTS {
		pts = s.lastDTS
	}
	s.frame.Timestamp = media.TicksToMillis(pts, s.timeBase)

	if err := p.sink.OnFrame(s.frame); err != nil {
		p.log.Warn("Frame sink failed: %v", err)
	}
	p.frames.Add(1)
	return true
}

// followPicture rebuilds the converter when the picture differs from what it
// was built for. Decoders settle on their output format with the first
// picture, and streams may change size mid-way. Unset picture fields are
// taken as unchanged.
func (p *Player) followPicture(s *session) error {
	pic := s.picture
	if pic.Width <= 0 || pic.Height <= 0 || pic.Format == media.PixelFormatNone {
		return nil
	}
	spec := ports.PictureSpec{Width: pic.Width, Height: pic.Height, Format: pic.Format}
	if spec == s.src {
		return nil
	}
	p.log.Debug("Decoder output changed to %dx%d %s", spec.Width, spec.Height, spec.Format)

	p.infoMu.RLock()
	info := p.info
	p.infoMu.RUnlock()
	if err := p.openConverter(&info, spec); err != nil {
		return err
	}
	if s.dst.Width != s.frame.Width || s.dst.Height != s.frame.Height {
		s.frame.Resize(s.dst.Width, s.dst.Height, s.dst.Format)
	}
	p.infoMu.Lock()
	p.info.SrcWidth, p.info.SrcHeight, p.info.SrcFormat = info.SrcWidth, info.SrcHeight, info.SrcFormat
	p.info.DstWidth, p.info.DstHeight, p.info.DstFormat = info.DstWidth, info.DstHeight, info.DstFormat
	p.infoMu.Unlock()
	return nil
}
