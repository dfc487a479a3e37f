package api

import "ensure/internal/schema"

func obj(required []interface{}, props map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"required":   required,
		"properties": props,
	}
}

func str() map[string]interface{} {
	return map[string]interface{}{"type": "string", "minLength": 1}
}

func num() map[string]interface{} {
	return map[string]interface{}{"type": "number", "minimum": 0}
}

// RegisterSchemas installs the payload schemas for every transaction kind.
// Requests failing these checks are rejected before any store access.
func RegisterSchemas(reg *schema.Registry) error {
	schemas := map[string]map[string]interface{}{
		"BuyProduct": obj(
			[]interface{}{"patient", "product"},
			map[string]interface{}{"patient": str(), "product": str()},
		),
		"CreateProduct": obj(
			[]interface{}{"productId", "premium", "cover", "provider"},
			map[string]interface{}{
				"productId": str(),
				"premium":   num(),
				"cover":     num(),
				"provider":  str(),
			},
		),
		"UpdateProduct": obj(
			[]interface{}{"premium", "cover"},
			map[string]interface{}{
				"premium": num(),
				"cover":   num(),
			},
		),
		"CreateDiagnosis": obj(
			[]interface{}{"diagnosisId", "doctor", "patient"},
			map[string]interface{}{
				"diagnosisId": str(),
				"doctor":      str(),
				"patient":     str(),
				"description": map[string]interface{}{"type": "string"},
			},
		),
		"CreatePrescription": obj(
			[]interface{}{"prescriptionId", "doctor", "patient", "validityDays"},
			map[string]interface{}{
				"prescriptionId": str(),
				"doctor":         str(),
				"patient":        str(),
				"description":    map[string]interface{}{"type": "string"},
				"validityDays":   map[string]interface{}{"type": "integer", "minimum": 0},
			},
		),
		"GenerateBill": obj(
			[]interface{}{"billId", "patient", "doctor", "amount"},
			map[string]interface{}{
				"billId":      str(),
				"patient":     str(),
				"doctor":      str(),
				"description": map[string]interface{}{"type": "string"},
				"amount":      num(),
			},
		),
		"FileClaim": obj(
			[]interface{}{"claimId", "type", "patient", "product", "doctor"},
			map[string]interface{}{
				"claimId": str(),
				"type": map[string]interface{}{
					"type": "string",
					"enum": []interface{}{"REIMBURSEMENT", "CASHLESS"},
				},
				"patient":      str(),
				"product":      str(),
				"doctor":       str(),
				"prescription": map[string]interface{}{"type": "string"},
				"bill":         map[string]interface{}{"type": "string"},
			},
		),
		"GetMeds": obj(
			[]interface{}{"reqId", "prescription", "claim", "patient"},
			map[string]interface{}{
				"reqId":        str(),
				"prescription": str(),
				"claim":        str(),
				"patient":      str(),
			},
		),
		"CreatePatient": obj(
			[]interface{}{"patientId"},
			map[string]interface{}{
				"patientId": str(),
				"email":     map[string]interface{}{"type": "string"},
				"name":      map[string]interface{}{"type": "string"},
				"balance":   num(),
			},
		),
		"CreateDoctor": obj(
			[]interface{}{"doctorId"},
			map[string]interface{}{
				"doctorId": str(),
				"email":    map[string]interface{}{"type": "string"},
				"name":     map[string]interface{}{"type": "string"},
			},
		),
		"CreateInsuranceProvider": obj(
			[]interface{}{"providerId"},
			map[string]interface{}{
				"providerId": str(),
				"email":      map[string]interface{}{"type": "string"},
				"name":       map[string]interface{}{"type": "string"},
			},
		),
	}

	for kind, s := range schemas {
		if err := reg.Register(kind, s); err != nil {
			return err
		}
	}
	return nil
}
