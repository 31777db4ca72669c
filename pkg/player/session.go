package player

import (
	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/ports"
)

// session holds every handle of an open decode session. Each field is
// released independently, so any partially opened state can be torn down.
type session struct {
	decoder   ports.Decoder
	demuxer   ports.Demuxer
	picture   *ports.Picture
	packet    *ports.Packet
	frame     *media.Frame
	converter ports.Converter

	// src and dst are the specs the converter was built for.
	src ports.PictureSpec
	dst ports.PictureSpec

	videoIndex int
	timeBase   media.Rational
	// pending is set while packet was refused with ErrAgain and must be
	// sent again after the next receive.
	pending  bool
	draining bool
	lastDTS  int64
}

// releaseOrder is walked by cleanup. Decoder before demuxer, the
// converter last.
var releaseOrder = []struct {
	name    string
	release func(s *session) error
}{
	{"decoder", func(s *session) error {
		if s.decoder == nil {
			return nil
		}
		err := s.decoder.Close()
		s.decoder = nil
		return err
	}},
	{"demuxer", func(s *session) error {
		if s.demuxer == nil {
			return nil
		}
		err := s.demuxer.Close()
		s.demuxer = nil
		return err
	}},
	{"picture", func(s *session) error {
		if s.picture != nil {
			*s.picture = ports.Picture{}
			s.picture = nil
		}
		return nil
	}},
	{"packet", func(s *session) error {
		if s.packet != nil {
			s.packet.Reset()
			s.packet = nil
		}
		s.pending = false
		return nil
	}},
	{"frame", func(s *session) error {
		if s.frame != nil {
			s.frame.Data = nil
			s.frame = nil
		}
		return nil
	}},
	{"converter", func(s *session) error {
		if s.converter == nil {
			return nil
		}
		err := s.converter.Close()
		s.converter = nil
		return err
	}},
}

// open reports whether any handle is still held.
func (s *session) open() bool {
	return s.decoder != nil || s.demuxer != nil || s.picture != nil ||
		s.packet != nil || s.frame != nil || s.converter != nil
}
