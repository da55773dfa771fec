package appraisal

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/antique-appraiser/pkg/ai"
)

var (
	pngHeader  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00}
)

type fetcherStub struct {
	data        []byte
	contentType string
	err         error
	calls       int
}

func (f *fetcherStub) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	f.calls++
	if f.err != nil {
		return nil, "", f.err
	}
	return f.data, f.contentType, nil
}

func newTestAssembler(cfg AssemblerConfig, fetcher Fetcher) *Assembler {
	return NewAssembler(cfg, fetcher, zerolog.Nop())
}

func TestAssembleRequiresImages(t *testing.T) {
	_, err := newTestAssembler(AssemblerConfig{}, nil).Assemble(context.Background(), Request{Title: "花瓶"})
	require.ErrorIs(t, err, ErrNoImages)
}

func TestAssembleCapsImages(t *testing.T) {
	for _, n := range []int{1, 5, 6, 7, 10} {
		sources := make([]ImageSource, n)
		for i := range sources {
			sources[i] = BytesSource(fmt.Sprintf("img-%d.png", i), "", pngHeader)
		}

		assembly, err := newTestAssembler(AssemblerConfig{}, nil).Assemble(context.Background(), Request{Images: sources})
		require.NoError(t, err)

		want := min(n, DefaultMaxImages)
		require.Len(t, assembly.Images, want)
		require.Equal(t, want, assembly.Prompt.ImageCount())
		require.Equal(t, n-want, assembly.Dropped)
		require.Equal(t, ai.PartText, assembly.Prompt.Parts[0].Type)
		require.Equal(t, "img-0.png", assembly.Images[0].Label)
	}
}

func TestAssembleSkipsUnusableSourcesAndKeepsOrder(t *testing.T) {
	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)
	sources := []ImageSource{
		BytesSource("empty.jpg", "image/jpeg", nil),
		URISource("data:image/png;base64,@@@"),
		URISource(dataURI),
		URISource("ftp://example.com/vase.jpg"),
		BytesSource("vase.jpg", "", jpegHeader),
	}

	assembly, err := newTestAssembler(AssemblerConfig{}, nil).Assemble(context.Background(), Request{Images: sources})
	require.NoError(t, err)

	require.Len(t, assembly.Images, 2)
	require.Equal(t, "image/png", assembly.Images[0].MIMEType)
	require.Equal(t, "image/jpeg", assembly.Images[1].MIMEType)
	require.Len(t, assembly.Skipped, 3)
	require.Equal(t, "empty.jpg", assembly.Skipped[0].Label)
	require.Equal(t, "ftp://example.com/vase.jpg", assembly.Skipped[2].Label)

	img := assembly.Prompt.Parts[1].Image
	require.NotNil(t, img)
	require.Equal(t, pngHeader, img.Data)
}

func TestAssembleFillsCapPastFailures(t *testing.T) {
	sources := []ImageSource{URISource("not-a-url")}
	for i := 0; i < DefaultMaxImages; i++ {
		sources = append(sources, BytesSource(fmt.Sprintf("ok-%d.png", i), "", pngHeader))
	}

	assembly, err := newTestAssembler(AssemblerConfig{}, nil).Assemble(context.Background(), Request{Images: sources})
	require.NoError(t, err)
	require.Len(t, assembly.Images, DefaultMaxImages)
	require.Len(t, assembly.Skipped, 1)
	require.Zero(t, assembly.Dropped)
}

func TestAssembleAllRejected(t *testing.T) {
	sources := []ImageSource{
		BytesSource("big.png", "", append(pngHeader, make([]byte, 64)...)),
		URISource("https://example.com/a.jpg"),
	}

	assembly, err := newTestAssembler(AssemblerConfig{MaxImageBytes: 32}, &fetcherStub{err: ErrFetchFailed}).
		Assemble(context.Background(), Request{Images: sources})
	require.ErrorIs(t, err, ErrNoUsableImages)
	require.Len(t, assembly.Skipped, 2)
	require.Contains(t, assembly.Skipped[0].Reason, ErrImageTooLarge.Error())
	require.Contains(t, assembly.Skipped[1].Reason, ErrFetchFailed.Error())
}

func TestAssembleFetchesRemoteImages(t *testing.T) {
	fetcher := &fetcherStub{data: []byte("not really an image"), contentType: "image/webp"}

	assembly, err := newTestAssembler(AssemblerConfig{}, fetcher).
		Assemble(context.Background(), Request{Images: []ImageSource{URISource("https://example.com/bowl")}})
	require.NoError(t, err)
	require.Equal(t, 1, fetcher.calls)
	require.Equal(t, "image/webp", assembly.Images[0].MIMEType)
}

func TestAssembleRemoteWithoutFetcher(t *testing.T) {
	_, err := newTestAssembler(AssemblerConfig{}, nil).
		Assemble(context.Background(), Request{Images: []ImageSource{URISource("https://example.com/bowl.png")}})
	require.ErrorIs(t, err, ErrNoUsableImages)
}

func TestAssembleReadsLocalFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jar.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0o600))

	assembly, err := newTestAssembler(AssemblerConfig{}, nil).Assemble(context.Background(), Request{
		Images: []ImageSource{FileSource(path), FileSource(filepath.Join(dir, "missing.png"))},
	})
	require.NoError(t, err)
	require.Len(t, assembly.Images, 1)
	require.Equal(t, "jar.png", assembly.Images[0].Label)
	require.Len(t, assembly.Skipped, 1)
}

func TestAssembleRendersReferenceBlock(t *testing.T) {
	loc := LocaleFor(LanguageChinese)
	req := Request{
		Images:       []ImageSource{BytesSource("a.png", "", pngHeader)},
		Title:        "青花梅瓶",
		Period:       "明代",
		Material:     "瓷",
		Provenance:   "家传",
		Descriptions: []string{"描述一", " ", "描述二", "描述三", "描述四", "描述五", "描述六"},
	}

	assembly, err := newTestAssembler(AssemblerConfig{}, nil).Assemble(context.Background(), req)
	require.NoError(t, err)

	user := assembly.Prompt.Parts[0].Text
	require.Contains(t, user, loc.Prompt.ReferenceHeader)
	require.Contains(t, user, "物品标题: 青花梅瓶")
	require.Contains(t, user, "估计年代: 明代")
	require.Contains(t, user, "来源/获得方式: 家传")
	require.Contains(t, user, "描述五")
	require.NotContains(t, user, "描述六")
	require.Contains(t, assembly.Prompt.System, `"authenticity_score": 85`)
	require.Contains(t, assembly.Prompt.System, loc.Prompt.Role)
}

func TestAssembleOmitsEmptyReferenceBlock(t *testing.T) {
	loc := LocaleFor(LanguageEnglish)

	assembly, err := newTestAssembler(AssemblerConfig{}, nil).Assemble(context.Background(), Request{
		Images:   []ImageSource{BytesSource("a.png", "", pngHeader)},
		Title:    "   ",
		Language: LanguageEnglish,
	})
	require.NoError(t, err)

	user := assembly.Prompt.Parts[0].Text
	require.NotContains(t, user, loc.Prompt.ReferenceHeader)
	require.True(t, strings.HasPrefix(user, "**Task"))
	require.Contains(t, assembly.Prompt.System, "world-class antique appraiser")
	require.Equal(t, loc, assembly.Locale)
}

func TestAssembleHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestAssembler(AssemblerConfig{}, nil).
		Assemble(ctx, Request{Images: []ImageSource{BytesSource("a.png", "", pngHeader)}})
	require.True(t, errors.Is(err, context.Canceled))
}
