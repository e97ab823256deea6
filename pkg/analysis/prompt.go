package analysis

import (
	"fmt"
	"strings"

	"github.com/10spoon/ppomppurelaymonitor/pkg/scrapelog"
)

const promptTemplate = `다음은 뽐뿌 릴레이 게시판에서 최근 수집된 게시물 제목들입니다.
이 데이터를 바탕으로 트렌드 분석과 SNS 홍보 문구를 작성해주세요.

## 분석 요청사항
1. 인기 키워드: 자주 언급되는 브랜드/서비스/이벤트 (상위 5개, 간단히)
2. 트렌드 요약: 현재 어떤 종류의 이벤트/혜택이 주로 올라오는지 (2-3문장)

## SNS 홍보 문구
"쌀먹" (ssalmug.com) 관련 X/스레드 게시물을 1개 작성해주세요.

쌀먹 특징 (1-2개만 자연스럽게 녹여서):
- 레퍼럴 링크 복붙하면 AI가 알아서 분류해줌
- 누가 내 링크 누르면 답방하기 편함
- 오래된 링크도 공정하게 노출됨

반드시 지켜야 할 톤앤매너:
- 분석적 말투와 제안형 문장
- "~해보세요", "~있어요" 같은 광고 말투 절대 금지
- 이모지는 1-2개만, 없어도 됨
- 해시태그 2개 이하
- 100자 내외로 짧게
- 마치 본인이 직접 써본 후기처럼

좋은 예시:
- "요즘 케이뱅크 이벤트 쌀먹에서 보고 신청했는데 답방도 바로 됨 ㅋㅋ"
- "추천인 링크 정리하기 귀찮았는데 쌀먹 쓰니까 복붙만 하면 알아서 분류해줌"
- "알뜰폰 갈아타려고 쌀먹 들어갔다가 케뱅 돈나무도 발견 🍀"

나쁜 예시 (이렇게 쓰지 말 것):
- "쌀먹에서 다양한 혜택을 만나보세요!"
- "추천인 프로그램과 함께 즐거운 경험을 해보세요~"

## 게시물 제목 (%d개)
%s

한국어로 작성해주세요.`

// BuildPrompt renders the analysis prompt for the corpus. At most MaxTitles
// titles are embedded; an overflow marker replaces the rest.
func BuildPrompt(posts []scrapelog.Post) string {
	var b strings.Builder
	for i, post := range posts {
		if i == MaxTitles {
			fmt.Fprintf(&b, "… 외 %d개 생략\n", len(posts)-MaxTitles)
			break
		}
		b.WriteString("- ")
		b.WriteString(post.Title)
		b.WriteString("\n")
	}
	return fmt.Sprintf(promptTemplate, len(posts), strings.TrimRight(b.String(), "\n"))
}
