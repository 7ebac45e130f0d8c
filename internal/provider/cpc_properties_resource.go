package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/zhmcclient/zhmc-go/pkg/zhmc"
)

// Ensure the implementation satisfies the resource.Resource interface.
var _ resource.Resource = &CPCPropertiesResource{}
var _ resource.ResourceWithImportState = &CPCPropertiesResource{}

// NewCPCPropertiesResource is a helper function to simplify the provider implementation.
func NewCPCPropertiesResource() resource.Resource {
	return &CPCPropertiesResource{}
}

// CPCPropertiesResource manages the writeable properties of a CPC. The CPC
// itself exists independently of Terraform; deleting the resource only
// stops managing the properties.
type CPCPropertiesResource struct {
	client *zhmc.Client
}

// CPCPropertiesResourceModel describes the resource data model.
type CPCPropertiesResourceModel struct {
	CPC              types.String   `tfsdk:"cpc"`
	Description      types.String   `tfsdk:"description"`
	AcceptableStatus []types.String `tfsdk:"acceptable_status"`
}

// Metadata returns the resource type name.
func (r *CPCPropertiesResource) Metadata(_ context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_cpc_properties"
}

// Schema defines the schema for the resource.
func (r *CPCPropertiesResource) Schema(_ context.Context, _ resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Manages the writeable properties of a CPC. The CPC itself is not created or deleted.",
		Attributes: map[string]schema.Attribute{
			"cpc": schema.StringAttribute{
				MarkdownDescription: "Name of the CPC",
				Required:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"description": schema.StringAttribute{
				MarkdownDescription: "Description of the CPC",
				Optional:            true,
			},
			"acceptable_status": schema.ListAttribute{
				MarkdownDescription: "Status values that are considered acceptable for the CPC",
				Optional:            true,
				ElementType:         types.StringType,
			},
		},
	}
}

// Configure adds the provider configured client to the resource.
func (r *CPCPropertiesResource) Configure(_ context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
	// Prevent panic if the provider has not been configured.
	if req.ProviderData == nil {
		return
	}

	client, ok := req.ProviderData.(*zhmc.Client)
	if !ok {
		resp.Diagnostics.AddError(
			"unexpected resource configure type",
			fmt.Sprintf("expected *zhmc.Client, got: %T. please report this issue to the provider developers.", req.ProviderData),
		)
		return
	}

	r.client = client
}

// Create creates the resource and sets the initial Terraform state.
func (r *CPCPropertiesResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	var plan CPCPropertiesResourceModel

	resp.Diagnostics.Append(req.Plan.Get(ctx, &plan)...)
	if resp.Diagnostics.HasError() {
		return
	}

	r.apply(ctx, &plan, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &plan)...)
}

// Read refreshes the Terraform state with the latest data.
func (r *CPCPropertiesResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	var state CPCPropertiesResourceModel

	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)
	if resp.Diagnostics.HasError() {
		return
	}

	cpc, err := r.client.CPC.FindByName(ctx, state.CPC.ValueString())
	if err != nil {
		if zhmc.IsNotFoundError(err) {
			resp.State.RemoveResource(ctx)
			return
		}
		resp.Diagnostics.AddError(
			"error reading cpc",
			fmt.Sprintf("could not read CPC %s: %s", state.CPC.ValueString(), err.Error()),
		)
		return
	}

	props, err := r.client.CPC.GetProperties(ctx, cpc.ObjectURI)
	if err != nil {
		resp.Diagnostics.AddError(
			"error reading cpc properties",
			fmt.Sprintf("could not read properties of CPC %s: %s", state.CPC.ValueString(), err.Error()),
		)
		return
	}

	if !state.Description.IsNull() {
		if v, ok := props["description"].(string); ok {
			state.Description = types.StringValue(v)
		}
	}
	if state.AcceptableStatus != nil {
		if v, ok := props["acceptable-status"].([]any); ok {
			state.AcceptableStatus = make([]types.String, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					state.AcceptableStatus = append(state.AcceptableStatus, types.StringValue(s))
				}
			}
		}
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &state)...)
}

// Update updates the resource and sets the updated Terraform state.
func (r *CPCPropertiesResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	var plan CPCPropertiesResourceModel

	resp.Diagnostics.Append(req.Plan.Get(ctx, &plan)...)
	if resp.Diagnostics.HasError() {
		return
	}

	r.apply(ctx, &plan, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &plan)...)
}

// Delete removes the Terraform state. The CPC and its properties are left
// as they are.
func (r *CPCPropertiesResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
}

// ImportState imports an existing resource into Terraform.
func (r *CPCPropertiesResource) ImportState(ctx context.Context, req resource.ImportStateRequest, resp *resource.ImportStateResponse) {
	// The import ID is the CPC name
	resp.Diagnostics.Append(resp.State.SetAttribute(ctx, path.Root("cpc"), req.ID)...)
}

// apply writes the planned properties to the CPC.
func (r *CPCPropertiesResource) apply(ctx context.Context, plan *CPCPropertiesResourceModel, diags *diag.Diagnostics) {
	cpc, err := r.client.CPC.FindByName(ctx, plan.CPC.ValueString())
	if err != nil {
		diags.AddError(
			"error reading cpc",
			fmt.Sprintf("could not read CPC %s: %s", plan.CPC.ValueString(), err.Error()),
		)
		return
	}

	props := zhmc.Properties{}
	if !plan.Description.IsNull() {
		props["description"] = plan.Description.ValueString()
	}
	if plan.AcceptableStatus != nil {
		statuses := make([]string, 0, len(plan.AcceptableStatus))
		for _, s := range plan.AcceptableStatus {
			statuses = append(statuses, s.ValueString())
		}
		props["acceptable-status"] = statuses
	}
	if len(props) == 0 {
		return
	}

	if err := r.client.CPC.UpdateProperties(ctx, cpc.ObjectURI, props); err != nil {
		diags.AddError(
			"error updating cpc properties",
			fmt.Sprintf("could not update properties of CPC %s: %s", plan.CPC.ValueString(), err.Error()),
		)
	}
}
