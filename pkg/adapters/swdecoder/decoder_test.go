package swdecoder

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"testing"

	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/ports"
)

func TestRawDecoderSendReceive(t *testing.T) {
	c, ok := ByID(CodecRawVideo)
	if !ok {
		t.Fatal("rawvideo not registered")
	}
	dec, err := c.Open(ports.StreamInfo{Width: 4, Height: 2, PixelFormat: media.PixelFormatYUV420P})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer dec.Close()

	var pic ports.Picture
	if err := dec.ReceivePicture(&pic); !errors.Is(err, ports.ErrAgain) {
		t.Fatalf("receive before send = %v, want ErrAgain", err)
	}

	data := make([]byte, 4*2+2+2)
	data[0] = 7
	pkt := &ports.Packet{PTS: 3, Data: data}
	if err := dec.SendPacket(pkt); err != nil {
		t.Fatalf("SendPacket: %v", err)
	}
	if err := dec.SendPacket(pkt); !errors.Is(err, ports.ErrAgain) {
		t.Fatalf("second send = %v, want ErrAgain", err)
	}
	data[0] = 9 // the decoder owns a copy
	if err := dec.ReceivePicture(&pic); err != nil {
		t.Fatalf("ReceivePicture: %v", err)
	}
	if pic.PTS != 3 || pic.Planes[0][0] != 7 || len(pic.Planes) != 3 {
		t.Errorf("picture = pts %d y0 %d planes %d", pic.PTS, pic.Planes[0][0], len(pic.Planes))
	}

	if err := dec.SendPacket(nil); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if err := dec.ReceivePicture(&pic); err != io.EOF {
		t.Errorf("after drain = %v, want io.EOF", err)
	}
}

func TestRawDecoderRejectsShortPacket(t *testing.T) {
	c, _ := ByName("rawvideo")
	dec, err := c.Open(ports.StreamInfo{Width: 4, Height: 4, PixelFormat: media.PixelFormatGray8})
	if err != nil {
		t.Fatal(err)
	}
	err = dec.SendPacket(&ports.Packet{Data: make([]byte, 3)})
	if ports.StatusCode(err) != ports.CodeInvalidData {
		t.Errorf("err = %v", err)
	}
	if _, err := c.Open(ports.StreamInfo{}); err == nil {
		t.Error("expected geometry error")
	}
}

func TestMJPEGDecoder(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.Set(0, 0, color.RGBA{0, 0, 0, 255})
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}

	c, ok := ByName("mjpeg")
	if !ok {
		t.Fatal("mjpeg not registered")
	}
	dec, _ := c.Open(ports.StreamInfo{})
	if err := dec.SendPacket(&ports.Packet{PTS: media.NoPTS, DTS: 12, Data: buf.Bytes()}); err != nil {
		t.Fatalf("SendPacket: %v", err)
	}
	var pic ports.Picture
	if err := dec.ReceivePicture(&pic); err != nil {
		t.Fatal(err)
	}
	if pic.Width != 16 || pic.Height != 8 || pic.PTS != 12 {
		t.Errorf("picture %dx%d pts=%d", pic.Width, pic.Height, pic.PTS)
	}
	if !pic.Format.Planar() {
		t.Errorf("format = %v, want planar yuv", pic.Format)
	}

	if err := dec.SendPacket(&ports.Packet{Data: []byte("garbage")}); err == nil {
		t.Error("expected decode error")
	}
}
