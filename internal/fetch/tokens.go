package fetch

// Boilerplate token tables used by the extraction strategies. A cell or line
// containing any token is treated as page chrome rather than post text.
var (
	// Labels of the post-body table header (strategy 1, cell level).
	bodyTableHeaderTokens = []string{
		"게시판 글 본문보기", "조회", "공감", "비공감", "작성자",
		"더보기", "IP", "작성일", "신고", "스크랩",
	}

	// Line-level filter for the post-body table.
	bodyTableLineTokens = append(append([]string{}, bodyTableHeaderTokens...),
		"목록", "이전", "다음", "추천", "종목토론실", "네이버",
		"로그인", "검색", "댓글", "Copyright", "©", "Corp",
	)

	// Cells containing these are navigation, not content (strategy 3).
	tableNavTokens = []string{
		"이전글", "다음글", "목록", "추천", "신고", "스크랩",
		"종목토론실", "네이버 금융", "로그인", "검색", "댓글",
	}

	// Line-level filter for generic table cells.
	tableLineTokens = []string{
		"목록", "이전", "다음", "추천", "신고", "스크랩",
		"종목토론실", "네이버", "로그인", "검색", "댓글",
		"Copyright", "©", "Corp", "All Rights Reserved",
	}

	// Line-level filter for layout-styled cells (strategy 4).
	styledLineTokens = []string{
		"목록", "이전글", "다음글", "추천", "신고", "스크랩",
		"종목토론실", "네이버 금융", "로그인", "검색",
	}

	// Checked against the first 50 characters of a cell (strategy 5).
	leadNavTokens = []string{
		"목록", "이전글", "다음글", "네이버 금융", "종목토론실",
	}

	// Line-level filter for the last-resort scan.
	fallbackLineTokens = []string{
		"목록", "이전", "다음", "추천", "신고", "스크랩",
		"종목토론실", "네이버", "로그인", "검색", "댓글",
	}

	// Known body containers, tried in order (strategy 2).
	bodySelectors = []string{
		".view_text",
		"td.view_text",
		".board_view .view_text",
		"div.view_text",
		".article_view .view_text",
	}
)
