package classifier

import (
	"fmt"
	"strings"
)

// Recommendation builds the lawyer-consultation block appended to an answer
// when the analysis recommends professional help. Returns "" when no
// recommendation is warranted. Pure templating; idempotent for equal input.
func Recommendation(a Analysis) string {
	if !a.NeedsLawyer {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\n---\n\n## 👨‍⚖️ Professional Legal Consultation Recommended\n\n")

	if a.Urgency == UrgencyEmergency {
		b.WriteString("🚨 **URGENT**: This is an emergency situation. ")
		b.WriteString("Please contact emergency services immediately:\n")
		b.WriteString("- Police Emergency: **112**\n")
		b.WriteString("- Women Helpline: **181**\n")
		b.WriteString("- Child Helpline: **1098**\n\n")
	}

	b.WriteString("Based on your situation, I strongly recommend consulting with a professional lawyer because:\n\n")
	for i, reason := range a.Reasons {
		fmt.Fprintf(&b, "%d. %s\n", i+1, reason)
	}

	b.WriteString("\n### 📞 How to Get Legal Help:\n\n")
	b.WriteString("**Free Legal Aid Services:**\n")
	b.WriteString("- National Legal Services Authority (NALSA): **1800-110-116**\n")
	b.WriteString("- District Legal Services Authority (DLSA): Visit your local district court\n")
	b.WriteString("- State Legal Services Authority (SLSA): Contact your state legal services\n\n")

	b.WriteString("**Eligibility for Free Legal Aid:**\n")
	b.WriteString("- Women, children, persons with disabilities\n")
	b.WriteString("- SC/ST community members\n")
	b.WriteString("- Annual income below ₹3 lakhs\n")
	b.WriteString("- Victims of trafficking, mass disasters\n\n")

	b.WriteString("**Finding a Lawyer:**\n")
	b.WriteString("- Bar Council of India: https://www.barcouncilofindia.org/\n")
	b.WriteString("- State Bar Council: Contact your state bar association\n")
	b.WriteString("- Legal Aid Clinics: Available at most district courts\n\n")

	if a.Urgency == UrgencyHigh {
		b.WriteString("⚠️ **Time is critical** - Please seek legal consultation as soon as possible.\n")
	}

	return b.String()
}
