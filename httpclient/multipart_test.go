package httpclient

import (
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"
)

func TestMultipartBody_Encode(t *testing.T) {
	mp := &MultipartBody{
		Fields: map[string]string{"response_format": "verbose_json", "model": "whisper-1"},
		Files: []FileField{
			{FieldName: "file", FileName: "window.wav", ContentType: "audio/wav", Data: []byte("RIFF")},
			{FieldName: "extra", FileName: `a"b.bin`, Reader: strings.NewReader("stream")},
		},
	}

	reader, contentType, err := mp.encode()
	if err != nil {
		t.Fatalf("encode() error: %v", err)
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("unexpected content type %q (%v)", contentType, err)
	}

	mr := multipart.NewReader(reader, params["boundary"])
	var names []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextPart: %v", err)
		}
		data, _ := io.ReadAll(part)
		names = append(names, part.FormName())
		switch part.FormName() {
		case "file":
			if part.FileName() != "window.wav" || part.Header.Get("Content-Type") != "audio/wav" {
				t.Errorf("unexpected file part header %v", part.Header)
			}
			if string(data) != "RIFF" {
				t.Errorf("file data = %q", data)
			}
		case "extra":
			if part.Header.Get("Content-Type") != "application/octet-stream" {
				t.Errorf("expected default content type, got %q", part.Header.Get("Content-Type"))
			}
			if string(data) != "stream" {
				t.Errorf("reader data = %q", data)
			}
		}
	}

	want := []string{"model", "response_format", "file", "extra"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("part order = %v, want %v", names, want)
	}
}
