package notify

import (
	"fmt"
	"strings"

	"bloodlink/internal/domain"
)

func emailSubject(req domain.BloodRequest) string {
	return "Urgent Blood Donation Request"
}

// emailBody renders the donor alert. Donor identity is disclosed only here,
// through the channel itself; the requester never sees it.
func emailBody(donor domain.Donor, req domain.BloodRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", donor.Name)
	fmt.Fprintf(&b, "We have an urgent blood donation request that matches your blood group (%s).\n\n", req.BloodGroup)
	b.WriteString("Hospital Details:\n")
	fmt.Fprintf(&b, "- Hospital Name: %s\n", req.HospitalName)
	fmt.Fprintf(&b, "- Location: %s\n", req.HospitalLocation)
	fmt.Fprintf(&b, "- Contact Email: %s\n", req.HospitalEmail)
	fmt.Fprintf(&b, "- Contact Phone: %s\n", req.HospitalPhone)
	if req.PatientDetails != "" {
		fmt.Fprintf(&b, "\nPatient Details: %s\n", req.PatientDetails)
	}
	b.WriteString("\nIf you are available and willing to help, please contact the hospital directly using the information above.\n")
	b.WriteString("\nThank you for being a part of our life-saving network.\n")
	return b.String()
}

func messageBody(donor domain.Donor, req domain.BloodRequest) string {
	var b strings.Builder
	b.WriteString("*Urgent Blood Donation Request*\n\n")
	fmt.Fprintf(&b, "Dear %s, we have a request matching your blood group (%s).\n", donor.Name, req.BloodGroup)
	fmt.Fprintf(&b, "Hospital: %s, %s. Contact: %s / %s.\n",
		req.HospitalName, req.HospitalLocation, req.HospitalEmail, req.HospitalPhone)
	b.WriteString("If available, please contact the hospital directly.")
	return b.String()
}
