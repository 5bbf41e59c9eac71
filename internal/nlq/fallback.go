package nlq

import "strings"

// The fallback rules keep the service demonstrable with no model credential.
// They are a closed set of canned answers selected by substring match on the
// question; they are not a natural-language-to-SQL capability and are never
// consulted once a credential is configured.

type fallbackRule struct {
	keywords    []string
	sql         string
	result      string
	explanation string
}

var fallbackRules = []fallbackRule{
	{
		keywords: []string{"成绩", "数学"},
		sql: "SELECT s.student_name, g.score FROM grades g " +
			"JOIN students s ON g.student_id = s.student_id " +
			"JOIN subjects sub ON g.subject_id = sub.subject_id " +
			"WHERE sub.subject_name = '数学' ORDER BY g.score DESC",
		result:      "student_name,score\n张三,92.5\n李四,85\n王芳,78",
		explanation: "按分数从高到低列出了数学成绩:张三 92.5 分最高,其次是李四 85 分,王芳 78 分。",
	},
	{
		keywords: []string{"成绩"},
		sql: "SELECT sub.subject_name, AVG(g.score) AS average_score FROM grades g " +
			"JOIN subjects sub ON g.subject_id = sub.subject_id " +
			"GROUP BY sub.subject_name ORDER BY average_score DESC",
		result:      "subject_name,average_score\n英语,95\n语文,88\n数学,85.17",
		explanation: "汇总了各科目的平均成绩:英语平均分最高,其次是语文和数学。",
	},
	{
		keywords: []string{"出勤"},
		sql: "SELECT s.student_name, a.attended_on, a.status FROM attendance a " +
			"JOIN students s ON a.student_id = s.student_id ORDER BY a.attended_on DESC",
		result:      "student_name,attended_on,status\n张三,2024-04-15,present\n李四,2024-04-15,absent\n王芳,2024-04-15,present",
		explanation: "列出了最近的出勤记录:大部分学生正常出勤,李四在 2024-04-15 缺勤一次。",
	},
	{
		keywords:    []string{"学生"},
		sql:         "SELECT * FROM students",
		result:      "student_id,student_name,gender,class_id,enrolled_at\n1,张三,男,1,2023-09-01\n2,李四,男,1,2023-09-01\n3,王芳,女,2,2023-09-01\n4,赵敏,女,2,2023-09-01",
		explanation: "查询到全部学生信息,共 4 名学生,分布在两个班级。",
	},
}

var fallbackDefault = fallbackRule{
	sql:         "SELECT * FROM students LIMIT 10",
	result:      "student_id,student_name,gender,class_id,enrolled_at\n1,张三,男,1,2023-09-01\n2,李四,男,1,2023-09-01",
	explanation: "没有识别到具体的查询意图,返回了前几条学生记录作为示例。",
}

func matchFallback(question string) fallbackRule {
	for _, rule := range fallbackRules {
		if containsAll(question, rule.keywords) {
			return rule
		}
	}
	return fallbackDefault
}

func containsAll(question string, keywords []string) bool {
	for _, keyword := range keywords {
		if !strings.Contains(question, keyword) {
			return false
		}
	}
	return true
}
