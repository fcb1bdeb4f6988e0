package knx

type dptRow struct {
	main, sub    uint16
	name, format string
	unit         string
}

// dptRows lists every supported datapoint subtype.
var dptRows = []dptRow{
	{1, 1, "Switch", "B1", ""},
	{1, 2, "Bool", "B1", ""},
	{1, 3, "Enable", "B1", ""},
	{1, 4, "Ramp", "B1", ""},
	{1, 5, "Alarm", "B1", ""},
	{1, 6, "BinaryValue", "B1", ""},
	{1, 7, "Step", "B1", ""},
	{1, 8, "UpDown", "B1", ""},
	{1, 9, "OpenClose", "B1", ""},
	{1, 10, "Start", "B1", ""},
	{1, 11, "State", "B1", ""},
	{1, 12, "Invert", "B1", ""},
	{1, 13, "DimSendStyle", "B1", ""},
	{1, 14, "InputSource", "B1", ""},
	{1, 15, "Reset", "B1", ""},
	{1, 16, "Ack", "B1", ""},
	{1, 17, "Trigger", "B1", ""},
	{1, 18, "Occupancy", "B1", ""},
	{1, 19, "Window_Door", "B1", ""},
	{1, 21, "LogicalFunction", "B1", ""},
	{1, 22, "Scene_AB", "B1", ""},
	{1, 23, "ShutterBlinds_Mode", "B1", ""},
	{1, 100, "Heat_Cool", "B1", ""},
	{2, 1, "Switch_Control", "B2", ""},
	{2, 2, "Bool_Control", "B2", ""},
	{2, 3, "Enable_Control", "B2", ""},
	{2, 4, "Ramp_Control", "B2", ""},
	{2, 5, "Alarm_Control", "B2", ""},
	{2, 6, "BinaryValue_Control", "B2", ""},
	{2, 7, "Step_Control", "B2", ""},
	{2, 8, "Direction1_Control", "B2", ""},
	{2, 9, "Direction2_Control", "B2", ""},
	{2, 10, "Start_Control", "B2", ""},
	{2, 11, "State_Control", "B2", ""},
	{2, 12, "Invert_Control", "B2", ""},
	{3, 7, "Control_Dimming", "B1U3", ""},
	{3, 8, "Control_Blinds", "B1U3", ""},
	{4, 1, "Char_ASCII", "A8_ASCII", ""},
	{4, 2, "Char_8859_1", "A8_8859_1", ""},
	{5, 1, "Scaling", "U8", "%"},
	{5, 3, "Angle", "U8", "°"},
	{5, 4, "Percent_U8", "U8", ""},
	{5, 5, "DecimalFactor", "U8", ""},
	{5, 6, "Tariff", "U8", ""},
	{5, 10, "Value_1_Ucount", "U8", ""},
	{6, 1, "Percent_V8", "V8", "%"},
	{6, 10, "Value_1_Count", "V8", ""},
	{6, 20, "Status_Mode3", "B5N3", ""},
	{7, 1, "Value_2_Ucount", "U16", ""},
	{7, 2, "TimePeriodMsec", "U16", "ms"},
	{7, 3, "TimePeriod10MSec", "U16", "ms"},
	{7, 4, "TimePeriod100MSec", "U16", "ms"},
	{7, 5, "TimePeriodSec", "U16", "s"},
	{7, 6, "TimePeriodMin", "U16", "min"},
	{7, 7, "TimePeriodHrs", "U16", "h"},
	{7, 10, "PropDataType", "U16", ""},
	{7, 11, "Length_mm", "U16", "mm"},
	{7, 12, "UElCurrentmA", "U16", "mA"},
	{7, 13, "Brightness", "U16", "lx"},
	{8, 1, "Value_2_Count", "V16", ""},
	{8, 2, "DeltaTimeMsec", "V16", "ms"},
	{8, 3, "DeltaTime10MSec", "V16", "ms"},
	{8, 4, "DeltaTime100MSec", "V16", "ms"},
	{8, 5, "DeltaTimeSec", "V16", "s"},
	{8, 6, "DeltaTimeMin", "V16", "min"},
	{8, 7, "DeltaTimeHrs", "V16", "h"},
	{8, 10, "Percent_V16", "V16", "%"},
	{8, 11, "Rotation_Angle", "V16", "°"},
	{9, 1, "Value_Temp", "F16", "°C"},
	{9, 2, "Value_Tempd", "F16", "K"},
	{9, 3, "Value_Tempa", "F16", "K/h"},
	{9, 4, "Value_Lux", "F16", "lx"},
	{9, 5, "Value_Wsp", "F16", "m/s"},
	{9, 6, "Value_Pres", "F16", "Pa"},
	{9, 7, "Value_Humidity", "F16", "%"},
	{9, 8, "Value_AirQuality", "F16", "ppm"},
	{9, 10, "Value_Time1", "F16", "s"},
	{9, 11, "Value_Time2", "F16", "ms"},
	{9, 20, "Value_Volt", "F16", "mV"},
	{9, 21, "Value_Curr", "F16", "mA"},
	{9, 22, "PowerDensity", "F16", "W/m²"},
	{9, 23, "KelvinPerPercent", "F16", "K/%"},
	{9, 24, "Power", "F16", "kW"},
	{9, 25, "Value_Volume_Flow", "F16", "l/h"},
	{9, 26, "Rain_Amount", "F16", "l/m²"},
	{9, 27, "Value_Temp_F", "F16", "°F"},
	{9, 28, "Value_Wsp_kmh", "F16", "km/h"},
	{10, 1, "TimeOfDay", "N3N5r2N6r2N6", ""},
	{11, 1, "Date", "r3N5r4N4r1U7", ""},
	{12, 1, "Value_4_Ucount", "U32", ""},
	{13, 1, "Value_4_Count", "V32", ""},
	{13, 2, "FlowRate_m3h", "V32", "m³/h"},
	{13, 10, "ActiveEnergy", "V32", "Wh"},
	{13, 11, "ApparantEnergy", "V32", "VAh"},
	{13, 12, "ReactiveEnergy", "V32", "VARh"},
	{13, 13, "ActiveEnergy_kWh", "V32", "kWh"},
	{13, 14, "ApparantEnergy_kVAh", "V32", "kVAh"},
	{13, 15, "ReactiveEnergy_kVARh", "V32", "kVARh"},
	{13, 100, "LongDeltaTimeSec", "V32", "s"},
	{14, 0, "Value_Acceleration", "F32", "m/s²"},
	{14, 1, "Value_Acceleration_Angular", "F32", ""},
	{14, 2, "Value_Activation_Energy", "F32", ""},
	{14, 3, "Value_Activity", "F32", ""},
	{14, 4, "Value_Mol", "F32", ""},
	{14, 5, "Value_Amplitude", "F32", ""},
	{14, 6, "Value_AngleRad", "F32", ""},
	{14, 7, "Value_AngleDeg", "F32", "°"},
	{14, 8, "Value_Angular_Momentum", "F32", ""},
	{14, 9, "Value_Angular_Velocity", "F32", ""},
	{14, 10, "Value_Area", "F32", ""},
	{14, 11, "Value_Capacitance", "F32", ""},
	{14, 12, "Value_Charge_DensitySurface", "F32", ""},
	{14, 13, "Value_Charge_DensityVolume", "F32", ""},
	{14, 14, "Value_Compressibility", "F32", ""},
	{14, 15, "Value_Conductance", "F32", ""},
	{14, 16, "Value_Electrical_Conductivity", "F32", ""},
	{14, 17, "Value_Density", "F32", ""},
	{14, 18, "Value_Electric_Charge", "F32", ""},
	{14, 19, "Value_Electric_Current", "F32", "A"},
	{14, 20, "Value_Electric_CurrentDensity", "F32", ""},
	{14, 21, "Value_Electric_DipoleMoment", "F32", ""},
	{14, 22, "Value_Electric_Displacement", "F32", ""},
	{14, 23, "Value_Electric_FieldStrength", "F32", ""},
	{14, 24, "Value_Electric_Flux", "F32", ""},
	{14, 25, "Value_Electric_FluxDensity", "F32", ""},
	{14, 26, "Value_Electric_Polarization", "F32", ""},
	{14, 27, "Value_Electric_Potential", "F32", "V"},
	{14, 28, "Value_Electric_PotentialDifference", "F32", "V"},
	{14, 29, "Value_ElectromagneticMoment", "F32", ""},
	{14, 30, "Value_Electromotive_Force", "F32", ""},
	{14, 31, "Value_Energy", "F32", "J"},
	{14, 32, "Value_Force", "F32", ""},
	{14, 33, "Value_Frequency", "F32", "Hz"},
	{14, 34, "Value_Angular_Frequency", "F32", ""},
	{14, 35, "Value_Heat_Capacity", "F32", ""},
	{14, 36, "Value_Heat_FlowRate", "F32", ""},
	{14, 37, "Value_Heat_Quantity", "F32", ""},
	{14, 38, "Value_Impedance", "F32", ""},
	{14, 39, "Value_Length", "F32", "m"},
	{14, 40, "Value_Light_Quantity", "F32", ""},
	{14, 41, "Value_Luminance", "F32", ""},
	{14, 42, "Value_Luminous_Flux", "F32", ""},
	{14, 43, "Value_Luminous_Intensity", "F32", ""},
	{14, 44, "Value_Magnetic_FieldStrength", "F32", ""},
	{14, 45, "Value_Magnetic_Flux", "F32", ""},
	{14, 46, "Value_Magnetic_FluxDensity", "F32", ""},
	{14, 47, "Value_Magnetic_Moment", "F32", ""},
	{14, 48, "Value_Magnetic_Polarization", "F32", ""},
	{14, 49, "Value_Magnetization", "F32", ""},
	{14, 50, "Value_MagnetomotiveForce", "F32", ""},
	{14, 51, "Value_Mass", "F32", "kg"},
	{14, 52, "Value_MassFlux", "F32", ""},
	{14, 53, "Value_Momentum", "F32", ""},
	{14, 54, "Value_Phase_AngleRad", "F32", ""},
	{14, 55, "Value_Phase_AngleDeg", "F32", ""},
	{14, 56, "Value_Power", "F32", "W"},
	{14, 57, "Value_Power_Factor", "F32", ""},
	{14, 58, "Value_Pressure", "F32", "Pa"},
	{14, 59, "Value_Reactance", "F32", ""},
	{14, 60, "Value_Resistance", "F32", "Ω"},
	{14, 61, "Value_Resistivity", "F32", ""},
	{14, 62, "Value_SelfInductance", "F32", ""},
	{14, 63, "Value_SolidAngle", "F32", ""},
	{14, 64, "Value_Sound_Intensity", "F32", ""},
	{14, 65, "Value_Speed", "F32", "m/s"},
	{14, 66, "Value_Stress", "F32", ""},
	{14, 67, "Value_Surface_Tension", "F32", ""},
	{14, 68, "Value_Common_Temperature", "F32", "°C"},
	{14, 69, "Value_Absolute_Temperature", "F32", "K"},
	{14, 70, "Value_TemperatureDifference", "F32", "K"},
	{14, 71, "Value_Thermal_Capacity", "F32", ""},
	{14, 72, "Value_Thermal_Conductivity", "F32", ""},
	{14, 73, "Value_ThermoelectricPower", "F32", ""},
	{14, 74, "Value_Time", "F32", "s"},
	{14, 75, "Value_Torque", "F32", ""},
	{14, 76, "Value_Volume", "F32", "m³"},
	{14, 77, "Value_Volume_Flux", "F32", "m³/s"},
	{14, 78, "Value_Weight", "F32", ""},
	{14, 79, "Value_Work", "F32", ""},
	{15, 0, "Access_Data", "U4U4U4U4U4U4B4N4", ""},
	{16, 0, "String_ASCII", "A112_ASCII", ""},
	{16, 1, "String_8859_1", "A112_8859_1", ""},
	{17, 1, "SceneNumber", "r2U6", ""},
	{18, 1, "SceneControl", "B1r1U6", ""},
	{19, 1, "DateTime", "U8r4U4r3U5U3U5r2U6r2U6B16", ""},
	{20, 1, "SCLOMode", "N8", ""},
	{20, 2, "BuildingMode", "N8", ""},
	{20, 3, "OccMode", "N8", ""},
	{20, 4, "Priority", "N8", ""},
	{20, 5, "LightApplicationMode", "N8", ""},
	{20, 6, "ApplicationArea", "N8", ""},
	{20, 7, "AlarmClassType", "N8", ""},
	{20, 8, "PSUMode", "N8", ""},
	{20, 11, "ErrorClass_System", "N8", ""},
	{20, 12, "ErrorClass_HVAC", "N8", ""},
	{20, 13, "Time_Delay", "N8", ""},
	{20, 14, "Beaufort_Wind_Force_Scale", "N8", ""},
	{20, 17, "SensorSelect", "N8", ""},
	{20, 20, "ActuatorConnectType", "N8", ""},
	{20, 100, "FuelType", "N8", ""},
	{20, 101, "BurnerType", "N8", ""},
	{20, 102, "HVACMode", "N8", ""},
	{20, 103, "DHWMode", "N8", ""},
	{20, 104, "LoadPriority", "N8", ""},
	{20, 105, "HVACContrMode", "N8", ""},
	{20, 106, "HVACEmergMode", "N8", ""},
	{20, 107, "ChangeoverMode", "N8", ""},
	{20, 108, "ValveMode", "N8", ""},
	{20, 109, "DamperMode", "N8", ""},
	{20, 110, "HeaterMode", "N8", ""},
	{20, 111, "FanMode", "N8", ""},
	{20, 112, "MasterSlaveMode", "N8", ""},
	{20, 113, "StatusRoomSetp", "N8", ""},
	{20, 120, "ADAType", "N8", ""},
	{20, 121, "BackupMode", "N8", ""},
	{20, 122, "StartSynchronization", "N8", ""},
	{20, 600, "Behaviour_Lock_Unlock", "N8", ""},
	{20, 601, "Behaviour_Bus_Power_Up_Down", "N8", ""},
	{20, 602, "DALI_Fade_Time", "N8", ""},
	{20, 603, "BlinkingMode", "N8", ""},
	{20, 604, "LightControlMode", "N8", ""},
	{20, 605, "SwitchPBModel", "N8", ""},
	{20, 606, "PBAction", "N8", ""},
	{20, 607, "DimmPBModel", "N8", ""},
	{20, 608, "SwitchOnMode", "N8", ""},
	{20, 609, "LoadTypeSet", "N8", ""},
	{20, 610, "LoadTypeDetected", "N8", ""},
	{20, 801, "SABExceptBehaviour", "N8", ""},
	{20, 802, "SABBehaviour_Lock_Unlock", "N8", ""},
	{20, 803, "SSSBMode", "N8", ""},
	{20, 804, "BlindsControlMode", "N8", ""},
	{20, 1000, "CommMode", "N8", ""},
	{20, 1001, "AddInfoTypes", "N8", ""},
	{20, 1002, "RF_ModeSelect", "N8", ""},
	{20, 1003, "RF_FilterSelect", "N8", ""},
	{21, 1, "StatusGen", "B8", ""},
	{21, 2, "Device_Control", "B8", ""},
	{21, 100, "ForceSign", "B8", ""},
	{21, 101, "ForceSignCool", "B8", ""},
	{21, 102, "StatusRHC", "B8", ""},
	{21, 103, "StatusSDHWC", "B8", ""},
	{21, 104, "FuelTypeSet", "B8", ""},
	{21, 105, "StatusRCC", "B8", ""},
	{21, 106, "StatusAHU", "B8", ""},
	{21, 601, "LightActuatorErrorInfo", "B8", ""},
	{21, 1000, "RF_ModeInfo", "B8", ""},
	{21, 1001, "RF_FilterInfo", "B8", ""},
	{21, 1010, "Channel_Activation_8", "B8", ""},
	{22, 100, "StatusDHWC", "B16", ""},
	{22, 101, "StatusRHCC", "B16", ""},
	{22, 1000, "Media", "B16", ""},
	{22, 1010, "Channel_Activation_16", "B16", ""},
	{23, 1, "OnOff_Action", "N2", ""},
	{23, 2, "Alarm_Reaction", "N2", ""},
	{23, 3, "UpDown_Action", "N2", ""},
	{23, 102, "HVAC_PB_Action", "N2", ""},
	{25, 1000, "DoubleNibble", "U4U4", ""},
	{26, 1, "SceneInfo", "r1b1U6", ""},
	{27, 1, "CombinedInfoOnOff", "B32", ""},
	{29, 10, "ActiveEnergy_V64", "V64", "Wh"},
	{29, 11, "ApparantEnergy_V64", "V64", "VAh"},
	{29, 12, "ReactiveEnergy_V64", "V64", "VARh"},
	{30, 1010, "Channel_Activation_24", "B24", ""},
	{31, 101, "PB_Action_HVAC_Extended", "N3", ""},
	{222, 100, "TempRoomSetpSetF163", "F16F16F16", ""},
	{222, 101, "TempRoomSetpSetShiftF163", "F16F16F16", ""},
	{232, 600, "Colour_RGB", "U8U8U8", ""},
	{251, 600, "Colour_RGBW", "U8U8U8U8r4B4", ""},
}
