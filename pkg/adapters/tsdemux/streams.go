package tsdemux

import (
	"github.com/Comcast/gots/v2/psi"
	"github.com/Eyevinn/mp4ff/avc"
	"github.com/Eyevinn/mp4ff/hevc"

	"github.com/user/mediaplay/pkg/ports"
)

// Codec ids produced by this demuxer.
const (
	CodecH264       ports.CodecID = "h264"
	CodecHEVC       ports.CodecID = "hevc"
	CodecMPEG2Video ports.CodecID = "mpeg2video"
	CodecMPEG4      ports.CodecID = "mpeg4"
	CodecAAC        ports.CodecID = "aac"
	CodecMP3        ports.CodecID = "mp3"
	CodecAC3        ports.CodecID = "ac3"
	CodecEAC3       ports.CodecID = "eac3"
	CodecSCTE35     ports.CodecID = "scte_35"
	CodecDVBSub     ports.CodecID = "dvb_subtitle"
)

// classify maps a PMT stream_type to a kind and codec. Unknown private
// streams are reported as data.
func classify(streamType uint8) (ports.StreamKind, ports.CodecID) {
	switch streamType {
	case psi.PmtStreamTypeMpeg4VideoH264:
		return ports.KindVideo, CodecH264
	case psi.PmtStreamTypeMpeg4VideoH265:
		return ports.KindVideo, CodecHEVC
	case psi.PmtStreamTypeAac:
		return ports.KindAudio, CodecAAC
	case psi.PmtStreamTypeScte35:
		return ports.KindData, CodecSCTE35
	case 0x01, 0x02:
		return ports.KindVideo, CodecMPEG2Video
	case 0x10:
		return ports.KindVideo, CodecMPEG4
	case 0x03, 0x04:
		return ports.KindAudio, CodecMP3
	case 0x11:
		return ports.KindAudio, CodecAAC
	case 0x81:
		return ports.KindAudio, CodecAC3
	case 0x87:
		return ports.KindAudio, CodecEAC3
	case 0x06:
		return ports.KindSubtitle, CodecDVBSub
	}
	return ports.KindData, ports.CodecID("")
}

// inspect scans an Annex-B access unit for a random access picture and,
// when geometry is still unknown, an SPS.
func inspect(codec ports.CodecID, data []byte, info *ports.StreamInfo) (key bool) {
	switch codec {
	case CodecH264:
		for _, nalu := range avc.ExtractNalusFromByteStream(data) {
			if len(nalu) == 0 {
				continue
			}
			switch avc.GetNaluType(nalu[0]) {
			case avc.NALU_IDR:
				key = true
			case avc.NALU_SPS:
				if info.Width == 0 {
					if sps, err := avc.ParseSPSNALUnit(nalu, false); err == nil {
						info.Width, info.Height = int(sps.Width), int(sps.Height)
					}
				}
			}
		}
	case CodecHEVC:
		for _, nalu := range avc.ExtractNalusFromByteStream(data) {
			if len(nalu) < 2 {
				continue
			}
			t := hevc.GetNaluType(nalu[0])
			switch {
			case t >= 16 && t <= 21: // BLA, IDR and CRA pictures
				key = true
			case t == hevc.NALU_SPS && info.Width == 0:
				if sps, err := hevc.ParseSPSNALUnit(nalu); err == nil {
					w, h := sps.ImageSize()
					info.Width, info.Height = int(w), int(h)
				}
			}
		}
	}
	return key
}
