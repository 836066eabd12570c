package opml

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFlatList(t *testing.T) {
	raw := `<?xml version="1.0" encoding="UTF-8"?>
<opml version="2.0">
  <head><title>Feeds</title></head>
  <body>
    <outline text="Go Blog" title="The Go Blog" xmlUrl="https://go.dev/blog/feed.atom" htmlUrl="https://go.dev/blog"/>
    <outline text="No Feed Here"/>
    <outline text="Untitled Feed" xmlUrl="https://example.org/rss"/>
  </body>
</opml>`

	feeds, err := Parse([]byte(raw))
	require.NoError(t, err)
	require.Len(t, feeds, 2)

	require.Equal(t, "The Go Blog", feeds[0].Title)
	require.Equal(t, "https://go.dev/blog/feed.atom", feeds[0].XMLURL)
	require.Equal(t, "https://go.dev/blog", feeds[0].HTMLURL)

	// text attribute backs up a missing title
	require.Equal(t, "Untitled Feed", feeds[1].Title)
}

func TestParseNestedFolders(t *testing.T) {
	raw := `<opml version="1.0">
  <body>
    <outline text="Tech">
      <outline text="Nested" xmlUrl="https://nested.example/rss"/>
      <outline text="Deeper">
        <outline text="Deep Feed" xmlUrl="https://deep.example/rss"/>
      </outline>
    </outline>
    <outline text="Top" xmlUrl="https://top.example/rss"/>
  </body>
</opml>`

	feeds, err := Parse([]byte(raw))
	require.NoError(t, err)
	require.Len(t, feeds, 3)
	require.Equal(t, "https://nested.example/rss", feeds[0].XMLURL)
	require.Equal(t, "https://deep.example/rss", feeds[1].XMLURL)
	require.Equal(t, "https://top.example/rss", feeds[2].XMLURL)
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte(`<opml><body><outline`))
	require.Error(t, err)
}

func TestParseEmptyBody(t *testing.T) {
	feeds, err := Parse([]byte(`<opml version="2.0"><body></body></opml>`))
	require.NoError(t, err)
	require.Empty(t, feeds)
}
