package mp4demux

import (
	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/mediaplay/pkg/ports"
)

// Codec ids produced by this demuxer.
const (
	CodecH264   ports.CodecID = "h264"
	CodecHEVC   ports.CodecID = "hevc"
	CodecAV1    ports.CodecID = "av1"
	CodecVP9    ports.CodecID = "vp9"
	CodecMPEG4  ports.CodecID = "mpeg4"
	CodecMJPEG  ports.CodecID = "mjpeg"
	CodecAAC    ports.CodecID = "aac"
	CodecAC3    ports.CodecID = "ac3"
	CodecEAC3   ports.CodecID = "eac3"
	CodecOpus   ports.CodecID = "opus"
	CodecWebVTT ports.CodecID = "webvtt"
	CodecTTML   ports.CodecID = "ttml"
)

// codecForSampleEntry maps a sample entry four-cc to a codec id.
func codecForSampleEntry(fourcc string) ports.CodecID {
	switch fourcc {
	case "avc1", "avc3":
		return CodecH264
	case "hvc1", "hev1":
		return CodecHEVC
	case "av01":
		return CodecAV1
	case "vp09":
		return CodecVP9
	case "mp4v":
		return CodecMPEG4
	case "jpeg", "mjpa", "mjpb":
		return CodecMJPEG
	case "mp4a":
		return CodecAAC
	case "ac-3":
		return CodecAC3
	case "ec-3":
		return CodecEAC3
	case "Opus":
		return CodecOpus
	case "wvtt":
		return CodecWebVTT
	case "stpp":
		return CodecTTML
	}
	return ports.CodecID(fourcc)
}

func kindForHandler(handler string) ports.StreamKind {
	switch handler {
	case "vide":
		return ports.KindVideo
	case "soun":
		return ports.KindAudio
	case "subt", "text", "sbtl", "clcp":
		return ports.KindSubtitle
	}
	return ports.KindData
}

// parameterSets returns the codec configuration of a visual sample entry as
// Annex-B NAL units.
func parameterSets(vse *mp4.VisualSampleEntryBox) []byte {
	var out []byte
	appendNalu := func(n []byte) {
		out = append(out, 0, 0, 0, 1)
		out = append(out, n...)
	}
	if vse.AvcC != nil {
		for _, sps := range vse.AvcC.SPSnalus {
			appendNalu(sps)
		}
		for _, pps := range vse.AvcC.PPSnalus {
			appendNalu(pps)
		}
	}
	if vse.HvcC != nil {
		for _, arr := range vse.HvcC.NaluArrays {
			for _, n := range arr.Nalus {
				appendNalu(n)
			}
		}
	}
	return out
}

// avccToAnnexB converts length-prefixed NAL units to start-code prefixed
// ones, appending to dst.
func avccToAnnexB(dst, data []byte) []byte {
	offset := 0
	for offset+4 <= len(data) {
		naluLen := int(data[offset])<<24 | int(data[offset+1])<<16 |
			int(data[offset+2])<<8 | int(data[offset+3])
		offset += 4
		if naluLen < 0 || offset+naluLen > len(data) {
			break
		}
		dst = append(dst, 0, 0, 0, 1)
		dst = append(dst, data[offset:offset+naluLen]...)
		offset += naluLen
	}
	return dst
}
