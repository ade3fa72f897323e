package booking

import (
	"fmt"

	"github.com/jwalitptl/agenda-api/internal/model"
)

const msgRejected = "Appointment request declined by the professional."

func describeSlot(apt *model.Appointment) string {
	d := apt.AppointmentDate
	return fmt.Sprintf("%02d/%02d/%d at %s", d.Day(), int(d.Month()), d.Year(), apt.StartTime)
}

func serviceName(apt *model.Appointment) string {
	if apt.ServiceLabel != nil && *apt.ServiceLabel != "" {
		return *apt.ServiceLabel
	}
	return "Appointment"
}

func msgRequested(apt *model.Appointment, when string) string {
	return fmt.Sprintf("Appointment requested: %s on %s. Waiting for the professional to confirm.", serviceName(apt), when)
}

func msgRescheduled(when string) string {
	return "Appointment rescheduled to " + when + "."
}

func msgConfirmed(when string) string {
	return "Appointment confirmed for " + when + "."
}

func msgCanceled(byProfessional bool) string {
	if byProfessional {
		return "Appointment canceled by the professional."
	}
	return "Appointment canceled by the client."
}
