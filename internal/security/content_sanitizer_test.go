package security

import (
	"strings"
	"testing"
)

// TestSanitize_AllowedTags はエディタが出力する許可タグが正しく通過することを検証する。
func TestSanitize_AllowedTags(t *testing.T) {
	sanitizer := NewNoteSanitizer()

	tests := []struct {
		name  string
		input string
		// want に含まれるべき部分文字列
		wantContains []string
	}{
		{
			name:         "pタグが許可される",
			input:        "<p>段落</p>",
			wantContains: []string{"<p>段落</p>"},
		},
		{
			name:         "見出しタグが許可される",
			input:        "<h1>大</h1><h2>中</h2><h3>小</h3>",
			wantContains: []string{"<h1>大</h1>", "<h2>中</h2>", "<h3>小</h3>"},
		},
		{
			name:         "装飾タグが許可される",
			input:        "<strong>太字</strong><em>斜体</em><s>取消</s><u>下線</u>",
			wantContains: []string{"<strong>太字</strong>", "<em>斜体</em>", "<s>取消</s>", "<u>下線</u>"},
		},
		{
			name:         "markタグが許可される",
			input:        "<p><mark>強調</mark></p>",
			wantContains: []string{"<mark>強調</mark>"},
		},
		{
			name:         "リストタグが許可される",
			input:        "<ul><li>項目1</li></ul><ol><li>項目2</li></ol>",
			wantContains: []string{"<ul>", "<ol>", "<li>項目1</li>", "<li>項目2</li>"},
		},
		{
			name:         "blockquoteタグが許可される",
			input:        "<blockquote>引用</blockquote>",
			wantContains: []string{"<blockquote>引用</blockquote>"},
		},
		{
			name:         "preタグとcodeタグが許可される",
			input:        "<pre><code>func main() {}</code></pre>",
			wantContains: []string{"<pre>", "<code>", "func main() {}"},
		},
		{
			name:         "hrとbrが許可される",
			input:        "行1<br>行2<hr>",
			wantContains: []string{"<br", "<hr", "行1", "行2"},
		},
		{
			name:         "プレーンテキストはそのまま残る",
			input:        "C",
			wantContains: []string{"C"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

// TestSanitize_ForbiddenTags は禁止タグが除去されることを検証する。
func TestSanitize_ForbiddenTags(t *testing.T) {
	sanitizer := NewNoteSanitizer()

	tests := []struct {
		name         string
		input        string
		wantAbsent   []string
		wantContains []string
	}{
		{
			name:         "scriptタグが除去される",
			input:        `<p>テスト</p><script>alert('xss')</script><p>安全</p>`,
			wantAbsent:   []string{"<script", "</script>", "alert"},
			wantContains: []string{"テスト", "安全"},
		},
		{
			name:         "iframeタグが除去される",
			input:        `<p>テスト</p><iframe src="https://evil.com"></iframe>`,
			wantAbsent:   []string{"<iframe", "evil.com"},
			wantContains: []string{"テスト"},
		},
		{
			name:         "styleタグが除去される",
			input:        `<p>テスト</p><style>body{display:none}</style>`,
			wantAbsent:   []string{"<style", "display:none"},
			wantContains: []string{"テスト"},
		},
		{
			name:         "imgタグが除去される",
			input:        `<p>テスト</p><img src="https://example.com/x.png" onerror="alert(1)">`,
			wantAbsent:   []string{"<img", "onerror"},
			wantContains: []string{"テスト"},
		},
		{
			name:         "許可されていないタグ（div）が除去される",
			input:        `<div><p>テスト</p></div>`,
			wantAbsent:   []string{"<div", "</div>"},
			wantContains: []string{"<p>テスト</p>"},
		},
		{
			name:       "formタグが除去される",
			input:      `<form action="https://evil.com"><input type="text"></form>`,
			wantAbsent: []string{"<form", "<input"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, absent := range tt.wantAbsent {
				if strings.Contains(got, absent) {
					t.Errorf("Sanitize(%q) = %q, should NOT contain %q", tt.input, got, absent)
				}
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

// TestSanitize_OnEventAttributes はon*イベント属性とstyle属性が除去されることを検証する。
func TestSanitize_OnEventAttributes(t *testing.T) {
	sanitizer := NewNoteSanitizer()

	tests := []struct {
		name       string
		input      string
		wantAbsent []string
	}{
		{
			name:       "onclickが除去される",
			input:      `<p onclick="alert('xss')">テスト</p>`,
			wantAbsent: []string{"onclick", "alert"},
		},
		{
			name:       "onmouseoverが除去される",
			input:      `<a href="https://example.com" onmouseover="alert('xss')">リンク</a>`,
			wantAbsent: []string{"onmouseover", "alert"},
		},
		{
			name:       "style属性が除去される",
			input:      `<mark style="background:red">強調</mark>`,
			wantAbsent: []string{"style=", "background"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, absent := range tt.wantAbsent {
				if strings.Contains(got, absent) {
					t.Errorf("Sanitize(%q) = %q, should NOT contain %q", tt.input, got, absent)
				}
			}
		})
	}
}

// TestSanitize_AnchorSchemes はaタグのhrefスキーム制限と属性付与を検証する。
func TestSanitize_AnchorSchemes(t *testing.T) {
	sanitizer := NewNoteSanitizer()

	tests := []struct {
		name         string
		input        string
		wantContains []string
		wantAbsent   []string
	}{
		{
			name:         "httpsリンクにtargetとrelが付与される",
			input:        `<a href="https://example.com">リンク</a>`,
			wantContains: []string{"https://example.com", `target="_blank"`, "noopener", "noreferrer"},
		},
		{
			name:         "mailtoリンクが許可される",
			input:        `<a href="mailto:ana@x.com">メール</a>`,
			wantContains: []string{"mailto:ana@x.com"},
		},
		{
			name:       "javascriptスキームが拒否される",
			input:      `<a href="javascript:alert('xss')">XSS</a>`,
			wantAbsent: []string{"javascript:", "alert"},
		},
		{
			name:       "相対URLが拒否される",
			input:      `<a href="/admin">相対</a>`,
			wantAbsent: []string{`href="/admin"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
			for _, absent := range tt.wantAbsent {
				if strings.Contains(got, absent) {
					t.Errorf("Sanitize(%q) = %q, should NOT contain %q", tt.input, got, absent)
				}
			}
		})
	}
}

// TestSanitize_EmptyAndIdempotent は空入力と冪等性を検証する。
func TestSanitize_EmptyAndIdempotent(t *testing.T) {
	sanitizer := NewNoteSanitizer()

	if got := sanitizer.Sanitize(""); got != "" {
		t.Errorf("Sanitize(\"\") = %q, want empty", got)
	}

	input := `<p>本文 <a href="https://example.com">リンク</a><script>x()</script></p>`
	once := sanitizer.Sanitize(input)
	twice := sanitizer.Sanitize(once)
	if once != twice {
		t.Errorf("not idempotent: %q != %q", once, twice)
	}
}
