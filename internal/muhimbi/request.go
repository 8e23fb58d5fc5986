package muhimbi

import "encoding/base64"

// Performance modes accepted by the service.
const (
	PerformanceSlowButAccurate = "Slow but accurate"
	PerformanceFaster          = "Faster and less accurate"
	PerformanceFastest         = "Fastest and least accurate"
)

// Character filter modes accepted by the service.
const (
	CharactersAll       = "All"
	CharactersWhitelist = "Whitelist"
	CharactersBlacklist = "Blacklist"
)

const DefaultLanguage = "English"

// OcrRequest is the ocr_pdf request body.
type OcrRequest struct {
	UseAsyncPattern   bool   `json:"use_async_pattern"`
	SourceFileName    string `json:"source_file_name"`
	SourceFileContent string `json:"source_file_content"`
	Language          string `json:"language"`
	Performance       string `json:"performance"`
	CharactersOption  string `json:"characters_option"`
	Characters        string `json:"characters,omitempty"`
	Paginate          bool   `json:"paginate"`
	Regions           string `json:"regions,omitempty"`
	FailOnError       bool   `json:"fail_on_error"`
}

// Options are the per-document OCR settings.
type Options struct {
	Async            bool
	Language         string
	Performance      string
	CharactersOption string
	// Characters is the white/black list used with the matching CharactersOption.
	Characters string
	Paginate   bool
	// Regions restricts recognition to page areas, in the service's region syntax.
	Regions     string
	FailOnError bool
}

// DefaultOptions returns synchronous English OCR in accurate mode.
func DefaultOptions() Options {
	return Options{
		Language:         DefaultLanguage,
		Performance:      PerformanceSlowButAccurate,
		CharactersOption: CharactersAll,
		FailOnError:      true,
	}
}

// NewOcrRequest encodes content and fills blank options with their defaults.
func NewOcrRequest(content []byte, fileName string, opts Options) *OcrRequest {
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if opts.Performance == "" {
		opts.Performance = PerformanceSlowButAccurate
	}
	if opts.CharactersOption == "" {
		opts.CharactersOption = CharactersAll
	}
	return &OcrRequest{
		UseAsyncPattern:   opts.Async,
		SourceFileName:    fileName,
		SourceFileContent: EncodeContent(content),
		Language:          opts.Language,
		Performance:       opts.Performance,
		CharactersOption:  opts.CharactersOption,
		Characters:        opts.Characters,
		Paginate:          opts.Paginate,
		Regions:           opts.Regions,
		FailOnError:       opts.FailOnError,
	}
}

// EncodeContent is the file encoding used on the wire.
func EncodeContent(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeContent reverses EncodeContent.
func DecodeContent(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
