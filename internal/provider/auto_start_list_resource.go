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
	"github.com/hashicorp/terraform-plugin-log/tflog"
	"github.com/zhmcclient/zhmc-go/pkg/zhmc"
)

// Ensure the implementation satisfies the resource.Resource interface.
var _ resource.Resource = &AutoStartListResource{}
var _ resource.ResourceWithImportState = &AutoStartListResource{}

// NewAutoStartListResource is a helper function to simplify the provider implementation.
func NewAutoStartListResource() resource.Resource {
	return &AutoStartListResource{}
}

// AutoStartListResource is the resource implementation.
type AutoStartListResource struct {
	client *zhmc.Client
}

// AutoStartListResourceModel describes the resource data model.
type AutoStartListResourceModel struct {
	CPC     types.String          `tfsdk:"cpc"`
	Entries []AutoStartEntryModel `tfsdk:"entries"`
}

// AutoStartEntryModel describes one entry of the auto-start list: a
// partition, or a partition group with its member partitions.
type AutoStartEntryModel struct {
	Partition      types.String   `tfsdk:"partition"`
	Group          types.String   `tfsdk:"group"`
	Partitions     []types.String `tfsdk:"partitions"`
	Description    types.String   `tfsdk:"description"`
	PostStartDelay types.Int64    `tfsdk:"post_start_delay"`
}

// Metadata returns the resource type name.
func (r *AutoStartListResource) Metadata(_ context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_auto_start_list"
}

// Schema defines the schema for the resource.
func (r *AutoStartListResource) Schema(_ context.Context, _ resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Manages the auto-start list of a CPC in DPM mode. The entries are started in order when the CPC is activated.",
		Attributes: map[string]schema.Attribute{
			"cpc": schema.StringAttribute{
				MarkdownDescription: "Name of the CPC",
				Required:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"entries": schema.ListNestedAttribute{
				MarkdownDescription: "Ordered entries of the auto-start list",
				Required:            true,
				NestedObject: schema.NestedAttributeObject{
					Attributes: map[string]schema.Attribute{
						"partition": schema.StringAttribute{
							MarkdownDescription: "Name of the partition to start; mutually exclusive with group",
							Optional:            true,
						},
						"group": schema.StringAttribute{
							MarkdownDescription: "Name of a partition group to start; mutually exclusive with partition",
							Optional:            true,
						},
						"partitions": schema.ListAttribute{
							MarkdownDescription: "Names of the partitions in the group",
							Optional:            true,
							ElementType:         types.StringType,
						},
						"description": schema.StringAttribute{
							MarkdownDescription: "Description of the partition group",
							Optional:            true,
						},
						"post_start_delay": schema.Int64Attribute{
							MarkdownDescription: "Delay in seconds to wait after starting this entry",
							Required:            true,
						},
					},
				},
			},
		},
	}
}

// Configure adds the provider configured client to the resource.
func (r *AutoStartListResource) Configure(_ context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
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
func (r *AutoStartListResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	var plan AutoStartListResourceModel

	resp.Diagnostics.Append(req.Plan.Get(ctx, &plan)...)
	if resp.Diagnostics.HasError() {
		return
	}

	r.apply(ctx, &plan, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

	// Write logs using the tflog package
	tflog.Trace(ctx, "created an auto-start list resource")

	resp.Diagnostics.Append(resp.State.Set(ctx, &plan)...)
}

// Read refreshes the Terraform state with the latest data.
func (r *AutoStartListResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	var state AutoStartListResourceModel

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

	entries, present, err := r.client.CPC.GetAutoStartList(ctx, cpc.ObjectURI)
	if err != nil {
		resp.Diagnostics.AddError(
			"error reading auto-start list",
			fmt.Sprintf("could not read auto-start list of CPC %s: %s", state.CPC.ValueString(), err.Error()),
		)
		return
	}
	if !present {
		// Classic mode CPCs have no auto-start list.
		resp.State.RemoveResource(ctx)
		return
	}

	models, err := r.entryModels(ctx, entries)
	if err != nil {
		resp.Diagnostics.AddError(
			"error reading auto-start list",
			fmt.Sprintf("could not resolve partitions of CPC %s: %s", state.CPC.ValueString(), err.Error()),
		)
		return
	}
	state.Entries = models

	resp.Diagnostics.Append(resp.State.Set(ctx, &state)...)
}

// Update updates the resource and sets the updated Terraform state.
func (r *AutoStartListResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	var plan AutoStartListResourceModel

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

// Delete deletes the resource and removes the Terraform state.
func (r *AutoStartListResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	var state AutoStartListResourceModel

	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)
	if resp.Diagnostics.HasError() {
		return
	}

	cpc, err := r.client.CPC.FindByName(ctx, state.CPC.ValueString())
	if err != nil {
		if zhmc.IsNotFoundError(err) {
			return
		}
		resp.Diagnostics.AddError(
			"error reading cpc",
			fmt.Sprintf("could not read CPC %s: %s", state.CPC.ValueString(), err.Error()),
		)
		return
	}

	// Deleting the resource clears the auto-start list.
	if err := r.client.CPC.SetAutoStartList(ctx, cpc.ObjectURI, nil); err != nil {
		resp.Diagnostics.AddError(
			"error clearing auto-start list",
			fmt.Sprintf("could not clear auto-start list of CPC %s: %s", state.CPC.ValueString(), err.Error()),
		)
	}
}

// ImportState imports an existing resource into Terraform.
func (r *AutoStartListResource) ImportState(ctx context.Context, req resource.ImportStateRequest, resp *resource.ImportStateResponse) {
	// The import ID is the CPC name
	resp.Diagnostics.Append(resp.State.SetAttribute(ctx, path.Root("cpc"), req.ID)...)
}

// apply resolves the planned entries to HMC auto-start entries and writes
// the list to the CPC.
func (r *AutoStartListResource) apply(ctx context.Context, plan *AutoStartListResourceModel, diags *diag.Diagnostics) {
	cpc, err := r.client.CPC.FindByName(ctx, plan.CPC.ValueString())
	if err != nil {
		diags.AddError(
			"error reading cpc",
			fmt.Sprintf("could not read CPC %s: %s", plan.CPC.ValueString(), err.Error()),
		)
		return
	}

	entries := make([]zhmc.AutoStartEntry, 0, len(plan.Entries))
	for i, m := range plan.Entries {
		entry, err := r.autoStartEntry(ctx, cpc.ObjectURI, m)
		if err != nil {
			diags.AddError(
				"invalid auto-start entry",
				fmt.Sprintf("entry %d of the auto-start list of CPC %s: %s", i, plan.CPC.ValueString(), err.Error()),
			)
			return
		}
		entries = append(entries, entry)
	}

	if err := r.client.CPC.SetAutoStartList(ctx, cpc.ObjectURI, entries); err != nil {
		diags.AddError(
			"error setting auto-start list",
			fmt.Sprintf("could not set auto-start list of CPC %s: %s", plan.CPC.ValueString(), err.Error()),
		)
	}
}

// autoStartEntry converts one entry model to its HMC representation,
// resolving partition names to URIs.
func (r *AutoStartListResource) autoStartEntry(ctx context.Context, cpcURI string, m AutoStartEntryModel) (zhmc.AutoStartEntry, error) {
	delay := int(m.PostStartDelay.ValueInt64())

	switch {
	case !m.Partition.IsNull() && m.Partition.ValueString() != "":
		if !m.Group.IsNull() && m.Group.ValueString() != "" {
			return zhmc.AutoStartEntry{}, fmt.Errorf("partition and group are mutually exclusive")
		}
		partition, err := r.client.CPC.FindPartitionByName(ctx, cpcURI, m.Partition.ValueString())
		if err != nil {
			return zhmc.AutoStartEntry{}, err
		}
		return zhmc.AutoStartEntry{
			Type:           zhmc.AutoStartTypePartition,
			PostStartDelay: delay,
			PartitionURI:   partition.ObjectURI,
		}, nil

	case !m.Group.IsNull() && m.Group.ValueString() != "":
		uris := make([]string, 0, len(m.Partitions))
		for _, name := range m.Partitions {
			partition, err := r.client.CPC.FindPartitionByName(ctx, cpcURI, name.ValueString())
			if err != nil {
				return zhmc.AutoStartEntry{}, err
			}
			uris = append(uris, partition.ObjectURI)
		}
		return zhmc.AutoStartEntry{
			Type:           zhmc.AutoStartTypePartitionGroup,
			PostStartDelay: delay,
			Name:           m.Group.ValueString(),
			Description:    m.Description.ValueString(),
			PartitionURIs:  uris,
		}, nil

	default:
		return zhmc.AutoStartEntry{}, fmt.Errorf("either partition or group must be set")
	}
}

// entryModels converts HMC auto-start entries to entry models, resolving
// partition URIs back to names.
func (r *AutoStartListResource) entryModels(ctx context.Context, entries []zhmc.AutoStartEntry) ([]AutoStartEntryModel, error) {
	models := make([]AutoStartEntryModel, 0, len(entries))
	for _, e := range entries {
		m := AutoStartEntryModel{
			PostStartDelay: types.Int64Value(int64(e.PostStartDelay)),
		}
		if e.Type == zhmc.AutoStartTypePartitionGroup {
			m.Group = types.StringValue(e.Name)
			if e.Description != "" {
				m.Description = types.StringValue(e.Description)
			}
			for _, uri := range e.PartitionURIs {
				name, err := r.partitionName(ctx, uri)
				if err != nil {
					return nil, err
				}
				m.Partitions = append(m.Partitions, types.StringValue(name))
			}
		} else {
			name, err := r.partitionName(ctx, e.PartitionURI)
			if err != nil {
				return nil, err
			}
			m.Partition = types.StringValue(name)
		}
		models = append(models, m)
	}
	return models, nil
}

func (r *AutoStartListResource) partitionName(ctx context.Context, uri string) (string, error) {
	props, err := r.client.CPC.GetProperties(ctx, uri)
	if err != nil {
		return "", err
	}
	name, _ := props["name"].(string)
	return name, nil
}
