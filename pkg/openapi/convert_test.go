package openapi

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdoc/pkg/model"
)

const procurementDoc = `
openapi: 3.0.3
info:
  title: Procurement
  version: 1.0.0
paths: {}
components:
  schemas:
    PurchaseOrder:
      type: object
      title: Purchase Order
      x-formdoc:
        approvals:
          roles: [Prepared By, Approved By]
      required: [vendorName]
      properties:
        vendorName:
          type: string
          maxLength: 80
          x-formdoc: {label: Vendor, order: 1}
        orderDate:
          type: string
          format: date
          x-formdoc: {order: 2}
        priority:
          type: string
          enum: [low, high]
        expedite:
          type: boolean
        billing:
          type: object
          title: Billing
          properties:
            costCenter:
              type: string
              pattern: '^CC-\d+$'
        items:
          type: array
          minItems: 1
          x-formdoc: {dynamicColumns: true, label: Line Items}
          items:
            type: object
            required: [description]
            properties:
              description: {type: string, x-formdoc: {order: 1}}
              qty: {type: integer, minimum: 1, x-formdoc: {order: 2}}
              rate: {type: number, x-formdoc: {order: 3}}
              amount:
                type: number
                x-formdoc:
                  order: 4
                  total: sum
                  formula: {op: product, args: [qty, rate]}
    Tags:
      type: array
      items: {type: string}
    Deep:
      type: object
      properties:
        outer:
          type: object
          properties:
            inner:
              type: object
              properties:
                leaf: {type: string}
    Scalars:
      type: object
      properties:
        notes:
          type: array
          items: {type: string}
`

func TestFromSchemaConvertsComponent(t *testing.T) {
	got, err := FromSchema(context.Background(), []byte(procurementDoc), "PurchaseOrder")
	if err != nil {
		t.Fatalf("FromSchema: %v", err)
	}

	want := model.FormDefinition{
		ID:    "purchase-order",
		Title: "Purchase Order",
		Sections: []model.Section{
			{
				ID:    DefaultSection,
				Title: "Details",
				Fields: []model.Field{
					{Name: "vendorName", Label: "Vendor", Kind: model.FieldKindText, Required: true, Validations: []model.ValidationRule{
						{Kind: model.ValidationRuleMaxLength, Params: map[string]string{"value": "80"}},
					}},
					{Name: "orderDate", Label: "Order Date", Kind: model.FieldKindDate},
					{Name: "expedite", Label: "Expedite", Kind: model.FieldKindSelect, Options: []model.Option{
						{Value: "true", Label: "Yes"}, {Value: "false", Label: "No"},
					}},
					{Name: "priority", Label: "Priority", Kind: model.FieldKindSelect, Options: []model.Option{
						{Value: "low"}, {Value: "high"},
					}},
				},
			},
			{
				ID:    "billing",
				Title: "Billing",
				Fields: []model.Field{
					{Name: "costCenter", Label: "Cost Center", Kind: model.FieldKindText, Validations: []model.ValidationRule{
						{Kind: model.ValidationRulePattern, Params: map[string]string{"pattern": `^CC-\d+$`}},
					}},
				},
			},
		},
		Tables: []model.Table{{
			Name:           "items",
			Title:          "Line Items",
			MinRows:        1,
			DynamicColumns: true,
			Columns: []model.Field{
				{Name: "description", Label: "Description", Kind: model.FieldKindText, Required: true},
				{Name: "qty", Label: "Qty", Kind: model.FieldKindNumber, Validations: []model.ValidationRule{
					{Kind: model.ValidationRuleMin, Params: map[string]string{"value": "1"}},
				}},
				{Name: "rate", Label: "Rate", Kind: model.FieldKindNumber},
				{
					Name:     "amount",
					Label:    "Amount",
					Kind:     model.FieldKindNumber,
					Formula:  &model.Formula{Op: "product", Args: []string{"qty", "rate"}},
					Metadata: map[string]string{"total": "sum"},
				},
			},
		}},
		Approvals: &model.ApprovalConfig{Roles: []string{"Prepared By", "Approved By"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("definition mismatch (-want +got):\n%s", diff)
	}
}

func TestFromSchemaErrors(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		component string
		want      error
	}{
		{component: "Missing", want: ErrComponentNotFound},
		{component: "Tags", want: ErrUnsupportedSchema},
		{component: "Deep", want: ErrUnsupportedSchema},
		{component: "Scalars", want: ErrUnsupportedSchema},
	}
	for _, tc := range cases {
		t.Run(tc.component, func(t *testing.T) {
			_, err := FromSchema(ctx, []byte(procurementDoc), tc.component)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestComponents(t *testing.T) {
	doc, err := Load(context.Background(), []byte(procurementDoc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"Deep", "PurchaseOrder", "Scalars", "Tags"}
	if diff := cmp.Diff(want, Components(doc)); diff != "" {
		t.Fatalf("components mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsEmptyAndCancelled(t *testing.T) {
	if _, err := Load(context.Background(), []byte("  ")); err == nil {
		t.Fatalf("expected empty payload error")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := FromSchema(ctx, []byte(procurementDoc), "PurchaseOrder"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestKebab(t *testing.T) {
	cases := map[string]string{
		"PurchaseOrder": "purchase-order",
		"expense_claim": "expense-claim",
		"Timesheet2024": "timesheet2024",
		"HRRequest":     "hrrequest",
	}
	for in, want := range cases {
		if got := kebab(in); got != want {
			t.Fatalf("kebab(%q) = %q, want %q", in, got, want)
		}
	}
}
