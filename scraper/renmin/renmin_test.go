package renmin

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/pevans/newsdocs/paper"
	"github.com/pevans/newsdocs/scraper"
)

const channelPage = `<html><head><meta http-equiv="content-type" content="text/html;charset=GB2312"></head><body>
<div class="header"><div class="item">
<span><a href="/GB/1.html">高层动态</a></span>
<span><a href="/GB/2.html">时政要闻</a></span>
</div></div>
<div class="leftItem">
<div class="item"><h3><a href="/GB/1/index1.html">更多</a></h3><ul>
<li><a href="/n1/2024/0105/c1.html">领导人出席会议（高层动态）</a><i>2024-01-05 10:00</i></li>
</ul></div>
<div class="item"><h3><a href="/GB/2/index1.html">更多</a></h3><ul>
<li><a href="/n1/2024/0104/c2.html">要闻一</a> 2024-01-04</li>
</ul></div>
<div class="item"><ul><li><a href="/n1/c3.html">无分类</a><i>2024-01-03</i></li></ul></div>
</div>
</body></html>`

const articlePage = `<html><body><div class="rm_txt_con cf">
<p>　　新华社北京1月5日电</p>
<p>　　<strong>会议指出</strong>，要坚持。</p>
<p>　　第三段。</p>
<div><p>nested</p></div>
</div></body></html>`

func newSite(info scraper.Info, japanese bool) *Site {
	logger := slog.New(slog.DiscardHandler)
	fetcher := scraper.NewFetcher(logger, scraper.FetcherOptions{Timeout: 5 * time.Second, RateLimit: 100})
	if japanese {
		return NewJapanese(info, fetcher, logger)
	}
	return New(info, fetcher, logger)
}

func gbk(t *testing.T, s string) []byte {
	t.Helper()
	out, err := simplifiedchinese.GBK.NewEncoder().String(s)
	require.NoError(t, err)
	return []byte(out)
}

func TestParseList(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(channelPage))
	require.NoError(t, err)

	got := ParseList(doc, "http://politics.people.com.cn/")
	want := []paper.Entry{
		{Category: "高层动态", Title: "领导人出席会议", PubTime: "2024-01-05 10:00", Href: "http://politics.people.com.cn/n1/2024/0105/c1.html"},
		{Category: "时政要闻", Title: "要闻一", PubTime: "2024-01-04", Href: "http://politics.people.com.cn/n1/2024/0104/c2.html"},
		{Category: "Unknown", Title: "无分类", PubTime: "2024-01-03", Href: "http://politics.people.com.cn/n1/c3.html"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseList() mismatch (-want +got):\n%s", diff)
	}
}

func TestListAndDetailGBK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		switch r.URL.Path {
		case "/":
			w.Write(gbk(t, channelPage))
		default:
			w.Write([]byte(articlePage))
		}
	}))
	defer server.Close()

	site := newSite(scraper.Info{Name: "renmin", NameCN: "人民网", URLs: []string{server.URL + "/"}}, false)
	entries, err := site.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "领导人出席会议", entries[0].Title)

	body, err := site.Detail(context.Background(), entries[0].Href)
	require.NoError(t, err)

	got := site.ExtractParagraphs(body)
	want := []paper.Paragraph{
		paper.PlainParagraph("新华社北京1月5日电"),
		paper.PlainParagraph("第三段。"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractParagraphs() mismatch (-want +got):\n%s", diff)
	}
}

func TestDetailFallsBackToNestedParagraphs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<div class="rm_txt_con cf"><div><p>　　嵌套段落</p><p> </p></div></div>`)
	}))
	defer server.Close()

	site := newSite(scraper.Info{}, false)
	body, err := site.Detail(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, 1, body.Length())
	assert.Equal(t, []paper.Paragraph{paper.PlainParagraph("嵌套段落")}, site.ExtractParagraphs(body))
}

func TestYearMode(t *testing.T) {
	archive := func(next string, dates ...string) string {
		var b strings.Builder
		b.WriteString(`<div class="leftItem"><div class="item"><ul>`)
		for i, d := range dates {
			fmt.Fprintf(&b, `<li><a href="/n1/%s-%d.html">t%s-%d</a><i>%s</i></li>`, d, i, d, i, d)
		}
		b.WriteString(`</ul></div></div><table><tr><td align="right">`)
		if next != "" {
			fmt.Fprintf(&b, `<a href="%s">下一页</a>`, next)
		}
		b.WriteString(`</td></tr></table>`)
		return b.String()
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			fmt.Fprint(w, channelPage)
		case "/GB/1/index1.html":
			fmt.Fprint(w, archive("index2.html", "2024-03-01", "2024-02-01"))
		case "/GB/1/index2.html":
			fmt.Fprint(w, archive("index3.html", "2024-01-01", "2023-12-31"))
		case "/GB/2/index1.html":
			fmt.Fprint(w, archive("", "2024-06-01"))
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	site := newSite(scraper.Info{URLs: []string{server.URL + "/"}, Year: 2024}, false)
	entries, err := site.List(context.Background())
	require.NoError(t, err)

	var titles []string
	for _, e := range entries {
		titles = append(titles, e.Category+":"+e.Title)
	}
	assert.Equal(t, []string{
		"高层动态:t2024-03-01-0",
		"高层动态:t2024-02-01-1",
		"高层动态:t2024-01-01-0",
		"时政要闻:t2024-06-01-0",
	}, titles)
}

const japanesePage = `<div class="left fl"><h3 class="tit">政治</h3>
<div class="list clearfix"><a href="/n3/2024/0401/c94474.html"><h3 class="tit">記事一</h3></a><span class="time">人民網日本語版　2024-04-01 10:00</span></div>
<div class="list clearfix"><a href="/n3/2024/0331/c94475.html"><h3 class="tit">記事二</h3></a><span class="time">2024-03-31</span></div>
</div>`

func TestParseJapaneseList(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(japanesePage))
	require.NoError(t, err)

	got := ParseJapaneseList(doc, "http://j.people.com.cn/")
	require.Len(t, got, 2)
	assert.Equal(t, paper.Entry{
		Category: "政治",
		Title:    "記事一",
		PubTime:  "2024-04-01",
		Href:     "http://j.people.com.cn/n3/2024/0401/c94474.html",
	}, got[0])
}

func TestJapaneseDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<h2 class="sub">副題</h2><div class="w1000 j-d2txt j-d2txt-fanyi clearfix"><p>本文一</p><p>本文二</p></div>`)
	}))
	defer server.Close()

	site := newSite(scraper.Info{}, true)
	body, err := site.Detail(context.Background(), server.URL)
	require.NoError(t, err)

	got := site.ExtractParagraphs(body)
	assert.Equal(t, []paper.Paragraph{
		paper.PlainParagraph("副題"),
		paper.PlainParagraph("本文一"),
		paper.PlainParagraph("本文二"),
	}, got)
}
