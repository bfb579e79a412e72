// fixtures.go - Compiler output fixtures shared by package tests
package testutil

// RefXML is compiler output with two namespaces. Only Ref declares a system
// section. The Command topology has three connections across three distinct
// instances; the Health topology holds a single half connection.
const RefXML = `<?xml version="1.0" encoding="UTF-8"?>
<fpp>
  <namespace name="Fw">
    <port_type>
      <porttype name="Cmd">
        <arg name="opCode" type="U32"/>
        <arg name="cmdSeq" type="U32"/>
        <arg name="args" type="CmdArgBuffer" pass_by="ref"/>
      </porttype>
      <porttype name="CmdResponse">
        <arg name="opCode" type="U32"/>
        <arg name="response" type="CmdResponse" pass_by="ref"/>
      </porttype>
    </port_type>
  </namespace>
  <namespace name="Ref">
    <component>
      <component name="SignalGen" kind="active">
        <port name="cmdIn" type="Fw.Cmd" direction="input" kind="sync_input"/>
        <port name="cmdResponseOut" type="Fw.CmdResponse" direction="output" kind="output"/>
        <port name="tlmOut" type="Fw.Tlm" direction="output" kind="output"/>
      </component>
      <component name="CmdDispatcher" kind="active">
        <port name="compCmdSend" type="Fw.Cmd" direction="output" kind="output" number="20"/>
        <port name="compCmdStat" type="Fw.CmdResponse" direction="input" kind="async_input"/>
        <port name="seqCmdBuff" type="Fw.Com" direction="input" kind="async_input"/>
      </component>
      <component name="Health" kind="queued">
        <port name="pingIn" type="Svc.Ping" direction="input" kind="async_input"/>
      </component>
    </component>
    <system>
      <instance name="cmdDisp" type="Ref.CmdDispatcher" base_id="0x0500" queue_size="20" stack_size="65536" priority="101"/>
      <instance name="SG1" type="Ref.SignalGen" base_id="0x2100" queue_size="10"/>
      <instance name="SG2" type="Ref.SignalGen" base_id="0x2200" queue_size=""/>
      <instance name="health" type="Ref.Health" base_id="0x2300"/>
      <topology name="Command">
        <connection>
          <source instance="cmdDisp" port="compCmdSend"/>
          <target instance="SG1" port="cmdIn"/>
        </connection>
        <connection>
          <source instance="cmdDisp" port="compCmdSend"/>
          <target instance="SG2" port="cmdIn"/>
        </connection>
        <connection>
          <source instance="SG1" port="cmdResponseOut"/>
          <target instance="cmdDisp" port="compCmdStat"/>
        </connection>
      </topology>
      <topology name="Health">
        <connection>
          <source instance="health"/>
        </connection>
      </topology>
    </system>
  </namespace>
</fpp>
`

// TwoSystemsXML declares a system section in two namespaces.
const TwoSystemsXML = `<fpp>
  <namespace name="A"><system/></namespace>
  <namespace name="B"><system/></namespace>
</fpp>`

// BadInstanceTypeXML has an instance whose type is not namespace.component.
const BadInstanceTypeXML = `<fpp>
  <namespace name="Ref">
    <system>
      <instance name="bad" type="NoNamespace" base_id="0x1"/>
    </system>
  </namespace>
</fpp>`
