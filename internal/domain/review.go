package domain

// Review splits a finished attempt's topics into strengths and weaknesses and
// suggests one tip per weak topic.
type Review struct {
	Strengths       []QuestionCategory `json:"strengths,omitempty" bson:"strengths,omitempty"`
	Weaknesses      []QuestionCategory `json:"weaknesses,omitempty" bson:"weaknesses,omitempty"`
	Recommendations []string           `json:"recommendations,omitempty" bson:"recommendations,omitempty"`
}

var topicTips = map[QuestionCategory]string{
	TopicPhishing:       "Check the sender's address and hover over links before clicking anything in a message.",
	TopicSocialMedia:    "Review your privacy settings and limit what strangers can see on your profiles.",
	TopicOnlineShopping: "Shop only on trusted sites and be wary of deals that ask for advance payment.",
	TopicBanking:        "Never share your OTP, PIN or card details, not even with someone claiming to be bank staff.",
	TopicUPIScams:       "Receiving money never needs your UPI PIN. Decline unexpected collect requests.",
	TopicGeneral:        "Keep your apps updated and use a strong, unique password for every account.",
}

// ReviewOf groups answers by topic in order of first appearance. A topic is a
// strength only when every answer in it is correct.
func ReviewOf(answers []Answer) Review {
	var order []QuestionCategory
	weak := make(map[QuestionCategory]bool)
	for _, a := range answers {
		topic := a.Category
		if topic == "" {
			topic = TopicGeneral
		}
		if _, seen := weak[topic]; !seen {
			order = append(order, topic)
			weak[topic] = false
		}
		if !a.IsCorrect {
			weak[topic] = true
		}
	}

	var r Review
	for _, topic := range order {
		if !weak[topic] {
			r.Strengths = append(r.Strengths, topic)
			continue
		}
		r.Weaknesses = append(r.Weaknesses, topic)
		if tip, ok := topicTips[topic]; ok {
			r.Recommendations = append(r.Recommendations, tip)
		}
	}
	return r
}
