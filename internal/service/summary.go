package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cleberrangel/caregiver-fit-api/internal/model"
)

// BuildSummary gera o resumo em Markdown de uma avaliação. É o corpo
// usado na sincronização e em GET /assessments/:id/summary.
func BuildSummary(a *model.Assessment) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# 照顧管家適性評估 %s\n\n", a.ID)
	fmt.Fprintf(&b, "- 建立時間：%s\n", a.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "- 狀態：%s\n", a.Status)

	if r := a.Report; r != nil {
		fmt.Fprintf(&b, "- 綜合分數：%d\n", r.Composite)
		fmt.Fprintf(&b, "- 工作風格座標：(%s, %s)\n", num(r.Placement.X), num(r.Placement.Y))
		fmt.Fprintf(&b, "- 時數：已記錄 %s / 期間 %s（閒置 %s）\n\n",
			num(r.TrackedHours), num(r.PeriodTotal), num(r.IdleHours))

		b.WriteString("## 象限矩陣\n\n")
		b.WriteString("| 象限 | 任務 | 時數 | 分數 |\n|---|---|---|---|\n")
		for _, bk := range r.Buckets {
			names := make([]string, 0, len(bk.Tasks))
			for _, t := range bk.Tasks {
				names = append(names, t.Name)
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %d |\n", bk.Label, strings.Join(names, "、"), num(bk.Hours), bk.Points)
		}
		b.WriteString("\n")
	}

	if len(a.Radar) > 0 {
		b.WriteString("## 適性雷達\n\n")
		for _, p := range a.Radar {
			fmt.Fprintf(&b, "- %s：%s / %s\n", p.Subject, num(p.Value), num(p.FullMark))
		}
		b.WriteString("\n")
	}

	if a.Analysis != nil {
		b.WriteString("## 個人適性建議\n\n")
		for _, p := range Paragraphs(a.Analysis.SuitabilityAdvice) {
			b.WriteString(p + "\n\n")
		}

		if len(a.Assistance) > 0 {
			b.WriteString("## AI 可以怎麼協助你\n\n")
			for _, l := range a.Assistance {
				if l.ListItem {
					b.WriteString("- " + l.Text + "\n")
				} else {
					b.WriteString("\n**" + l.Text + "**\n\n")
				}
			}
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
