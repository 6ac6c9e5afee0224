package gemini

import (
	"fmt"

	"cyclone-bot/pkg/clock"
)

// buildExtractionPrompt renders the calendar extraction instructions with
// today's date and the ROC year conversion rule. Dates in the analyzed
// content often carry the Republic-of-China era (ROC year = Gregorian −
// 1911); the prompt states the conversion so the model normalizes every
// date to Gregorian YYYY-MM-DD.
func buildExtractionPrompt(c clock.Clock) string {
	today := clock.Today(c)
	year := c.Now().Year()
	rocYear := year - 1911

	return fmt.Sprintf(`你是一個專業的行政助理，專門從公文、通知、文字或圖片中提取行事曆相關資訊。

**重要：日期格式轉換**
- 民國年轉換：民國 %d 年 = 西元 %d 年
- 例如：%d年2月6日 → %d-02-06
- 所有日期請轉換為西元 YYYY-MM-DD 格式

請從以下內容中提取：
1. 活動/任務名稱（精簡主旨，30字內）
2. 日期（轉換為 YYYY-MM-DD 格式）
3. 時間（如有，轉換為 HH:MM 格式）
4. 結束時間（如有）
5. 地點（如有）
6. 重要截止日期（如報名截止日、繳交期限）
7. 聯絡人資訊（承辦人、電話、信箱）
8. 這是「活動」還是「任務」？判斷原則：「要出席/參加」→ 活動，「要完成/處理」→ 任務
   - 活動(event)：有明確的舉辦時間，需要「出席」或「參加」或「觀看」
     * 例：開會、上課、線上課程、直播、研習、講座、約會、聚餐、看電影、看醫生、面試
     * 注意：只要有「課程」「直播」「上課」就是活動！
   - 任務(task)：需要在某個期限前「完成」的事項，通常是要「做」某件事
     * 例：繳交報告、買東西、報名、填表、回覆信件、付款、寄件
9. 提醒設定（如有提到「提醒我」、「通知我」等）
   - 情境A - 明確時間點：「提醒我明天下午4點買東西」→ 提醒時間就是明天下午4點
   - 情境B - 提前通知：「明天4點開會，2小時前提醒」→ 提醒時間 = 事件時間 - 2小時

請以 JSON 格式回覆，不要包含 markdown code block：
{
  "title": "精簡的活動/任務名稱",
  "type": "event",
  "startDate": "YYYY-MM-DD",
  "startTime": "HH:MM",
  "endDate": "YYYY-MM-DD",
  "endTime": "HH:MM",
  "location": "地點",
  "deadline": "YYYY-MM-DD",
  "deadlineDescription": "截止事項說明（如：報名截止、資料繳交）",
  "contact": {"name": "承辦人姓名", "phone": "電話", "email": "信箱"},
  "priority": "中",
  "summary": "50字以內的摘要，說明這份內容要做什麼",
  "confidence": 0.8,
  "reminder": {
    "enabled": true,
    "mode": "exact",
    "exactTime": "YYYY-MM-DD HH:MM",
    "beforeMinutes": null,
    "description": "明天下午4點"
  }
}

注意事項：
- type 只能是 "event" 或 "task"
- priority：有截止日期且較近的設為「高」，一般通知設為「中」，參考性質設為「低」
- confidence 是 0.0 到 1.0 之間的數字，表示你對解析結果的信心程度
- 如果無法確定某個欄位，請設為 null
- 如果內容中沒有任何日期資訊，請將 confidence 設為 0
- 公文中的「說明」段落通常包含重要日期和要求
- reminder.mode：「exact」表示明確時間點，「before」表示提前通知
- reminder.beforeMinutes：提前幾分鐘提醒（1小時=60, 2小時=120, 1天=1440）

今天日期：%s（民國 %d 年）`,
		rocYear, year, rocYear, year, today, rocYear)
}
